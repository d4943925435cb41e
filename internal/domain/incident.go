package domain

import "time"

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusNew          IncidentStatus = "new"
	IncidentStatusAcknowledged IncidentStatus = "acknowledged"
	IncidentStatusInProgress   IncidentStatus = "in-progress"
	IncidentStatusResolved     IncidentStatus = "resolved"
	IncidentStatusClosed       IncidentStatus = "closed"
)

// IncidentPriority represents the urgency of an incident.
type IncidentPriority string

// Incident priorities, ordered low to critical.
const (
	PriorityLow      IncidentPriority = "low"
	PriorityMedium   IncidentPriority = "medium"
	PriorityHigh     IncidentPriority = "high"
	PriorityCritical IncidentPriority = "critical"
)

// AlertType categorizes the source condition of an incident.
type AlertType string

// Alert types.
const (
	AlertTypeTemperature AlertType = "temperature"
	AlertTypeHumidity    AlertType = "humidity"
	AlertTypeSecurity    AlertType = "security"
	AlertTypeEquipment   AlertType = "equipment"
	AlertTypeInventory   AlertType = "inventory"
	AlertTypeSafety      AlertType = "safety"
)

// Note is an annotation attached to an incident. Notes are append-only:
// once attached they are never edited or removed.
type Note struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Author     User      `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	IsInternal bool      `json:"is_internal"`
}

// Incident is a tracked operational event requiring response: an equipment
// fault, security breach, or environmental anomaly at a facility.
type Incident struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Status          IncidentStatus   `json:"status"`
	Priority        IncidentPriority `json:"priority"`
	AlertType       AlertType        `json:"alert_type"`
	Location        string           `json:"location"`
	AssignedTo      *User            `json:"assigned_to,omitempty"`
	ReportedBy      User             `json:"reported_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	AcknowledgedAt  *time.Time       `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	Notes           []Note           `json:"notes"`
	EscalationLevel int              `json:"escalation_level"`
	SLADeadline     time.Time        `json:"sla_deadline"`
}

// IsValid checks if the status is one of the defined lifecycle states.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusNew, IncidentStatusAcknowledged, IncidentStatusInProgress,
		IncidentStatusResolved, IncidentStatusClosed:
		return true
	}
	return false
}

// IsSettled reports whether the status is resolved or closed, i.e. the
// incident no longer counts as active and stops accruing SLA lateness.
func (s IncidentStatus) IsSettled() bool {
	return s == IncidentStatusResolved || s == IncidentStatusClosed
}

// IsValid checks if the priority is one of the defined levels.
func (p IncidentPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Next returns the priority one step up the ladder, saturating at critical.
func (p IncidentPriority) Next() IncidentPriority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

// SLAWindow returns the resolution window granted at report time for the
// given priority. The deadline is fixed at creation and never recomputed.
func (p IncidentPriority) SLAWindow() time.Duration {
	switch p {
	case PriorityCritical:
		return 2 * time.Hour
	case PriorityHigh:
		return 4 * time.Hour
	default:
		return 8 * time.Hour
	}
}

// IsValid checks if the alert type is one of the defined categories.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeTemperature, AlertTypeHumidity, AlertTypeSecurity,
		AlertTypeEquipment, AlertTypeInventory, AlertTypeSafety:
		return true
	}
	return false
}
