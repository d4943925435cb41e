package tracker

import "github.com/actworks/control-tower/internal/domain"

// Action is the closed set of state changes the store accepts. Every
// mutation of the incident collection goes through Dispatch with one of
// these payloads; there is no other write path.
type Action interface {
	actionName() string
}

// AddIncident prepends a fully-formed incident to the collection.
// The store performs no validation; callers validate before dispatch.
type AddIncident struct {
	Incident domain.Incident
}

// UpdateStatus sets the status of the incident with the given ID and stamps
// the matching lifecycle timestamp on first arrival at that status.
// Unknown IDs are ignored.
type UpdateStatus struct {
	IncidentID string
	Status     domain.IncidentStatus
}

// AssignIncident sets the assignee of the incident with the given ID.
// Unknown IDs are ignored.
type AssignIncident struct {
	IncidentID string
	User       domain.User
}

// AddNote appends a note to the incident with the given ID. Notes are
// append-only and keep insertion order. Unknown IDs are ignored.
type AddNote struct {
	IncidentID string
	Note       domain.Note
}

// EscalateIncident bumps the escalation level by one and advances priority
// one step up the ladder, saturating at critical. Unknown IDs are ignored.
type EscalateIncident struct {
	IncidentID string
}

// SelectIncident sets the currently viewed incident pointer. A nil incident
// clears the selection. The collection itself is not touched.
type SelectIncident struct {
	Incident *domain.Incident
}

// SetIncidents replaces the whole collection. Used for bulk load.
type SetIncidents struct {
	Incidents []*domain.Incident
}

func (AddIncident) actionName() string      { return "add_incident" }
func (UpdateStatus) actionName() string     { return "update_status" }
func (AssignIncident) actionName() string   { return "assign_incident" }
func (AddNote) actionName() string          { return "add_note" }
func (EscalateIncident) actionName() string { return "escalate_incident" }
func (SelectIncident) actionName() string   { return "select_incident" }
func (SetIncidents) actionName() string     { return "set_incidents" }
