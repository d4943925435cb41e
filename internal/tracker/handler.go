package tracker

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/actworks/control-tower/internal/domain"
	"github.com/actworks/control-tower/internal/insights"
	"github.com/actworks/control-tower/internal/pkg/httputil"
)

// defaultRecentLimit bounds GET /incidents/recent when no limit is given.
const defaultRecentLimit = 5

var incidentErrorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrInvalidTransition, Status: http.StatusConflict},
	{Error: ErrIncidentSettled, Status: http.StatusConflict},
	{Error: ErrUnknownUser, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the incident workflow.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incident handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers read-only incident routes. Any authenticated
// role may browse the dashboard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/stats", h.GetStats)
		r.Get("/recent", h.ListRecent)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/insights", h.GetInsights)
	})
}

// RegisterOperatorRoutes registers mutating incident routes. The caller is
// expected to wrap them in a role gate.
func (h *Handler) RegisterOperatorRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Post("/", h.Report)
		r.Post("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/assign", h.Assign)
		r.Post("/{id}/notes", h.AddNote)
		r.Post("/{id}/escalate", h.Escalate)
		r.Post("/{id}/select", h.Select)
		r.Post("/selection/clear", h.ClearSelection)
	})
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		SearchTerm: q.Get("search"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Facility:   q.Get("facility"),
	}

	httputil.Success(w, http.StatusOK, h.service.ListIncidents(filter))
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incident)
}

// GetStats handles GET /incidents/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	httputil.Success(w, http.StatusOK, h.service.Stats())
}

// ListRecent handles GET /incidents/recent.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	httputil.Success(w, http.StatusOK, h.service.RecentIncidents(limit))
}

// GetInsights handles GET /incidents/{id}/insights.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, insights.Advise(incident, time.Now()))
}

// ReportRequest represents an incident report request body.
type ReportRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
	AlertType   string `json:"alert_type" validate:"required"`
	Priority    string `json:"priority" validate:"required"`
}

// Report handles POST /incidents.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.ReportIncident(ReportIncidentInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		AlertType:   domain.AlertType(req.AlertType),
		Priority:    domain.IncidentPriority(req.Priority),
	}, httputil.GetUser(r.Context()))
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			httputil.ValidationError(w, validationErrors)
			return
		}
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// UpdateStatusRequest represents a status change request body.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles POST /incidents/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.UpdateStatus(chi.URLParam(r, "id"), domain.IncidentStatus(req.Status))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// AssignRequest represents an assignment request body.
type AssignRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Assign handles POST /incidents/{id}/assign.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.AssignIncident(chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// AddNoteRequest represents a note request body.
type AddNoteRequest struct {
	Content    string `json:"content" validate:"required"`
	IsInternal bool   `json:"is_internal"`
}

// AddNote handles POST /incidents/{id}/notes.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.AddNote(chi.URLParam(r, "id"), AddNoteInput{
		Content:    req.Content,
		IsInternal: req.IsInternal,
	}, httputil.GetUser(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// Escalate handles POST /incidents/{id}/escalate.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.EscalateIncident(chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Select handles POST /incidents/{id}/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.SelectIncident(chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// ClearSelection handles POST /incidents/selection/clear.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.SelectIncident(""); err != nil {
		httputil.HandleError(r.Context(), w, err, incidentErrorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
