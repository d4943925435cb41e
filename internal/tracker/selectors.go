package tracker

import (
	"sort"
	"strings"
	"time"

	"github.com/actworks/control-tower/internal/domain"
)

// Derived views over an incident collection. All functions here are pure:
// they never mutate their input and carry no reference to the store, so they
// can run against any snapshot without locking.

// FilterMatchAll is the sentinel meaning "do not filter on this field".
const FilterMatchAll = "all"

// Filter narrows an incident list. Zero-value fields and FilterMatchAll are
// ignored; all populated criteria must match (AND composition).
type Filter struct {
	// SearchTerm matches as a case-insensitive substring of the title,
	// description or location (OR across the three fields).
	SearchTerm string
	// Status matches exactly unless empty or "all".
	Status string
	// Priority matches exactly unless empty or "all".
	Priority string
	// Facility matches as a case-insensitive substring of the location.
	Facility string
}

// IncidentStats is an aggregate summary of a collection.
type IncidentStats struct {
	Total        int `json:"total"`
	New          int `json:"new"`
	Acknowledged int `json:"acknowledged"`
	InProgress   int `json:"in_progress"`
	Resolved     int `json:"resolved"`
	Closed       int `json:"closed"`
	Overdue      int `json:"overdue"`
}

// CountByStatus returns the number of incidents per lifecycle status.
func CountByStatus(incidents []*domain.Incident) map[domain.IncidentStatus]int {
	counts := make(map[domain.IncidentStatus]int)
	for _, inc := range incidents {
		counts[inc.Status]++
	}
	return counts
}

// CountByPriority returns the number of incidents per priority.
func CountByPriority(incidents []*domain.Incident) map[domain.IncidentPriority]int {
	counts := make(map[domain.IncidentPriority]int)
	for _, inc := range incidents {
		counts[inc.Priority]++
	}
	return counts
}

// IsOverdue reports whether the incident has blown its SLA deadline as of
// now. Resolved and closed incidents are never overdue.
func IsOverdue(inc *domain.Incident, now time.Time) bool {
	if inc.Status.IsSettled() {
		return false
	}
	return now.After(inc.SLADeadline)
}

// ActiveIncidents returns incidents that are neither resolved nor closed,
// in collection order.
func ActiveIncidents(incidents []*domain.Incident) []*domain.Incident {
	active := make([]*domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if !inc.Status.IsSettled() {
			active = append(active, inc)
		}
	}
	return active
}

// OverdueIncidents returns incidents that are overdue as of now, in
// collection order.
func OverdueIncidents(incidents []*domain.Incident, now time.Time) []*domain.Incident {
	overdue := make([]*domain.Incident, 0)
	for _, inc := range incidents {
		if IsOverdue(inc, now) {
			overdue = append(overdue, inc)
		}
	}
	return overdue
}

// RecentIncidents returns up to n non-closed incidents, newest first by
// creation time. The input slice is not reordered.
func RecentIncidents(incidents []*domain.Incident, n int) []*domain.Incident {
	recent := make([]*domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.Status != domain.IncidentStatusClosed {
			recent = append(recent, inc)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if n >= 0 && len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

// FilterIncidents returns the incidents matching every populated criterion
// of f, in collection order.
func FilterIncidents(incidents []*domain.Incident, f Filter) []*domain.Incident {
	matched := make([]*domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if matchesFilter(inc, f) {
			matched = append(matched, inc)
		}
	}
	return matched
}

func matchesFilter(inc *domain.Incident, f Filter) bool {
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(inc.Title), term) &&
			!strings.Contains(strings.ToLower(inc.Description), term) &&
			!strings.Contains(strings.ToLower(inc.Location), term) {
			return false
		}
	}
	if f.Status != "" && f.Status != FilterMatchAll && string(inc.Status) != f.Status {
		return false
	}
	if f.Priority != "" && f.Priority != FilterMatchAll && string(inc.Priority) != f.Priority {
		return false
	}
	if f.Facility != "" && f.Facility != FilterMatchAll &&
		!strings.Contains(strings.ToLower(inc.Location), strings.ToLower(f.Facility)) {
		return false
	}
	return true
}

// ProgressStep maps a status to its position on the four-step resolution
// track [new, acknowledged, in-progress, resolved]. The second return is
// false for closed, which sits outside the track.
func ProgressStep(status domain.IncidentStatus) (int, bool) {
	switch status {
	case domain.IncidentStatusNew:
		return 0, true
	case domain.IncidentStatusAcknowledged:
		return 1, true
	case domain.IncidentStatusInProgress:
		return 2, true
	case domain.IncidentStatusResolved:
		return 3, true
	}
	return 0, false
}

// Stats aggregates counts and the overdue total for a collection as of now.
func Stats(incidents []*domain.Incident, now time.Time) IncidentStats {
	stats := IncidentStats{Total: len(incidents)}
	for _, inc := range incidents {
		switch inc.Status {
		case domain.IncidentStatusNew:
			stats.New++
		case domain.IncidentStatusAcknowledged:
			stats.Acknowledged++
		case domain.IncidentStatusInProgress:
			stats.InProgress++
		case domain.IncidentStatusResolved:
			stats.Resolved++
		case domain.IncidentStatusClosed:
			stats.Closed++
		}
		if IsOverdue(inc, now) {
			stats.Overdue++
		}
	}
	return stats
}
