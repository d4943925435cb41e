package tracker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/actworks/control-tower/internal/domain"
)

// statusTransitions is the legal lifecycle graph enforced at the service
// level. The store itself admits any jump; the service is the gatekeeper.
// closed→new is the reopen path and keeps historical timestamps.
var statusTransitions = map[domain.IncidentStatus][]domain.IncidentStatus{
	domain.IncidentStatusNew:          {domain.IncidentStatusAcknowledged},
	domain.IncidentStatusAcknowledged: {domain.IncidentStatusInProgress},
	domain.IncidentStatusInProgress:   {domain.IncidentStatusResolved},
	domain.IncidentStatusResolved:     {domain.IncidentStatusClosed},
	domain.IncidentStatusClosed:       {domain.IncidentStatusNew},
}

func canTransition(from, to domain.IncidentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Service implements the incident workflow on top of the store: it validates
// input, enforces lifecycle transitions and resolves directory users, then
// dispatches. Handlers and the seeder talk to the service, never to the
// store directly.
type Service struct {
	store    *Store
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new incident service.
func NewService(store *Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ReportIncidentInput holds data for reporting a new incident.
type ReportIncidentInput struct {
	Title       string                  `validate:"required,max=200"`
	Description string                  `validate:"required"`
	Location    string                  `validate:"required"`
	AlertType   domain.AlertType        `validate:"required"`
	Priority    domain.IncidentPriority `validate:"required"`
}

// AddNoteInput holds data for attaching a note to an incident.
type AddNoteInput struct {
	Content    string `validate:"required"`
	IsInternal bool
}

// ReportIncident validates the input, mints an incident ID and SLA deadline
// and adds the incident to the store in status new.
func (s *Service) ReportIncident(input ReportIncidentInput, reportedBy domain.User) (*domain.Incident, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	if !input.AlertType.IsValid() {
		return nil, fmt.Errorf("invalid alert type: %s", input.AlertType)
	}
	if !input.Priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", input.Priority)
	}

	now := s.now()
	incident := domain.Incident{
		ID:          newIncidentID(input.Location),
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.IncidentStatusNew,
		Priority:    input.Priority,
		AlertType:   input.AlertType,
		Location:    input.Location,
		ReportedBy:  reportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		Notes:       []domain.Note{},
		SLADeadline: now.Add(input.Priority.SLAWindow()),
	}

	snap := s.store.Dispatch(AddIncident{Incident: incident})

	slog.Info("incident reported",
		"incident_id", incident.ID,
		"priority", incident.Priority,
		"alert_type", incident.AlertType,
		"location", incident.Location,
		"reported_by", reportedBy.ID)

	return findIncident(snap, incident.ID), nil
}

// UpdateStatus moves an incident to the requested lifecycle status,
// rejecting jumps that skip steps.
func (s *Service) UpdateStatus(id string, status domain.IncidentStatus) (*domain.Incident, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	// The transition check and the dispatch run under the store's write lock
	// as one step, so a concurrent mutation cannot slip in between them.
	var from domain.IncidentStatus
	snap, err := s.store.DispatchIf(id, func(current *domain.Incident) error {
		if current == nil {
			return ErrIncidentNotFound
		}
		if !canTransition(current.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}
		from = current.Status
		return nil
	}, UpdateStatus{IncidentID: id, Status: status})
	if err != nil {
		return nil, err
	}

	slog.Info("incident status updated",
		"incident_id", id,
		"from", from,
		"to", status)

	return findIncident(snap, id), nil
}

// AssignIncident assigns the incident to a user from the directory.
func (s *Service) AssignIncident(id, userID string) (*domain.Incident, error) {
	snap := s.store.Snapshot()
	if findIncident(snap, id) == nil {
		return nil, ErrIncidentNotFound
	}

	var assignee *domain.User
	for i := range snap.Users {
		if snap.Users[i].ID == userID {
			assignee = &snap.Users[i]
			break
		}
	}
	if assignee == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}

	next := s.store.Dispatch(AssignIncident{IncidentID: id, User: *assignee})

	slog.Info("incident assigned", "incident_id", id, "assignee", userID)

	return findIncident(next, id), nil
}

// AddNote appends a note to an incident.
func (s *Service) AddNote(id string, input AddNoteInput, author domain.User) (*domain.Incident, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	if findIncident(s.store.Snapshot(), id) == nil {
		return nil, ErrIncidentNotFound
	}

	note := domain.Note{
		ID:         uuid.New().String(),
		Content:    input.Content,
		Author:     author,
		CreatedAt:  s.now(),
		IsInternal: input.IsInternal,
	}

	snap := s.store.Dispatch(AddNote{IncidentID: id, Note: note})
	return findIncident(snap, id), nil
}

// EscalateIncident raises the escalation level and bumps priority one step.
// Settled incidents cannot be escalated.
func (s *Service) EscalateIncident(id string) (*domain.Incident, error) {
	snap, err := s.store.DispatchIf(id, func(current *domain.Incident) error {
		if current == nil {
			return ErrIncidentNotFound
		}
		if current.Status.IsSettled() {
			return ErrIncidentSettled
		}
		return nil
	}, EscalateIncident{IncidentID: id})
	if err != nil {
		return nil, err
	}
	updated := findIncident(snap, id)

	slog.Warn("incident escalated",
		"incident_id", id,
		"escalation_level", updated.EscalationLevel,
		"priority", updated.Priority)

	return updated, nil
}

// SelectIncident marks an incident as the currently viewed one. An empty
// ID clears the selection.
func (s *Service) SelectIncident(id string) (*domain.Incident, error) {
	if id == "" {
		s.store.Dispatch(SelectIncident{Incident: nil})
		return nil, nil
	}
	incident := findIncident(s.store.Snapshot(), id)
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	s.store.Dispatch(SelectIncident{Incident: incident})
	return incident, nil
}

// GetIncident returns the incident with the given ID.
func (s *Service) GetIncident(id string) (*domain.Incident, error) {
	incident := findIncident(s.store.Snapshot(), id)
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

// ListIncidents returns the incidents matching the filter.
func (s *Service) ListIncidents(f Filter) []*domain.Incident {
	return FilterIncidents(s.store.Snapshot().Incidents, f)
}

// RecentIncidents returns up to n non-closed incidents, newest first.
func (s *Service) RecentIncidents(n int) []*domain.Incident {
	return RecentIncidents(s.store.Snapshot().Incidents, n)
}

// Stats returns the aggregate summary of the current collection.
func (s *Service) Stats() IncidentStats {
	return Stats(s.store.Snapshot().Incidents, s.now())
}

// findIncident returns the incident with the given ID from a snapshot, or
// nil when absent.
func findIncident(snap Snapshot, id string) *domain.Incident {
	for _, inc := range snap.Incidents {
		if inc.ID == id {
			return inc
		}
	}
	return nil
}

// newIncidentID mints an ID of the form ACT-<SITE>-<suffix>, where SITE is
// the first word of the location and the suffix comes from a fresh UUID.
func newIncidentID(location string) string {
	site := "SITE"
	if fields := strings.Fields(location); len(fields) > 0 {
		site = strings.ToUpper(fields[0])
	}
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ACT-%s-%s", site, suffix)
}
