package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actworks/control-tower/internal/domain"
)

func buildIncident(id string, mutate func(*domain.Incident)) *domain.Incident {
	inc := newTestIncident(id, domain.IncidentStatusNew)
	if mutate != nil {
		mutate(&inc)
	}
	return &inc
}

func TestIsOverdue(t *testing.T) {
	deadline := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  domain.IncidentStatus
		now     time.Time
		overdue bool
	}{
		{"active before deadline", domain.IncidentStatusInProgress, deadline.Add(-time.Minute), false},
		{"active at deadline", domain.IncidentStatusInProgress, deadline, false},
		{"active past deadline", domain.IncidentStatusInProgress, deadline.Add(time.Minute), true},
		{"new past deadline", domain.IncidentStatusNew, deadline.Add(time.Hour), true},
		{"resolved past deadline", domain.IncidentStatusResolved, deadline.Add(time.Hour), false},
		{"closed past deadline", domain.IncidentStatusClosed, deadline.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := buildIncident("INC-1", func(i *domain.Incident) {
				i.Status = tt.status
				i.SLADeadline = deadline
			})
			assert.Equal(t, tt.overdue, IsOverdue(inc, tt.now))
		})
	}
}

func TestRecentIncidents_ExcludesClosedAndSortsNewestFirst(t *testing.T) {
	// Arrange
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	incidents := []*domain.Incident{
		buildIncident("INC-1", func(i *domain.Incident) { i.CreatedAt = base }),
		buildIncident("INC-2", func(i *domain.Incident) {
			i.CreatedAt = base.Add(2 * time.Hour)
			i.Status = domain.IncidentStatusClosed
		}),
		buildIncident("INC-3", func(i *domain.Incident) { i.CreatedAt = base.Add(time.Hour) }),
		buildIncident("INC-4", func(i *domain.Incident) { i.CreatedAt = base.Add(3 * time.Hour) }),
	}

	// Act
	recent := RecentIncidents(incidents, 2)

	// Assert — closed dropped, newest first, capped at n
	require.Len(t, recent, 2)
	assert.Equal(t, "INC-4", recent[0].ID)
	assert.Equal(t, "INC-3", recent[1].ID)

	// Input order untouched
	assert.Equal(t, "INC-1", incidents[0].ID)
}

func TestFilterIncidents(t *testing.T) {
	incidents := []*domain.Incident{
		buildIncident("INC-1", func(i *domain.Incident) {
			i.Title = "Freezer unit reading above threshold"
			i.Location = "Rochelle Distribution Center - Cold Storage Zone B"
			i.Priority = domain.PriorityCritical
		}),
		buildIncident("INC-2", func(i *domain.Incident) {
			i.Title = "Conveyor motor fault"
			i.Description = "Drive belt slipping under load"
			i.Location = "Gateway Logistics Hub - Packing Line 7"
			i.Status = domain.IncidentStatusInProgress
		}),
		buildIncident("INC-3", func(i *domain.Incident) {
			i.Title = "Badge reader tamper alarm"
			i.Location = "Gateway Logistics Hub - Dock Door 12"
		}),
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter matches all", Filter{}, []string{"INC-1", "INC-2", "INC-3"}},
		{"all sentinels match all", Filter{Status: "all", Priority: "all"}, []string{"INC-1", "INC-2", "INC-3"}},
		{"search matches title case-insensitively", Filter{SearchTerm: "FREEZER"}, []string{"INC-1"}},
		{"search matches description", Filter{SearchTerm: "drive belt"}, []string{"INC-2"}},
		{"search matches location", Filter{SearchTerm: "dock door"}, []string{"INC-3"}},
		{"status exact", Filter{Status: "in-progress"}, []string{"INC-2"}},
		{"priority exact", Filter{Priority: "critical"}, []string{"INC-1"}},
		{"facility substring", Filter{Facility: "gateway"}, []string{"INC-2", "INC-3"}},
		{"criteria compose with AND", Filter{SearchTerm: "gateway", Status: "in-progress"}, []string{"INC-2"}},
		{"no match", Filter{SearchTerm: "gateway", Priority: "critical"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterIncidents(incidents, tt.filter)
			ids := make([]string, 0, len(got))
			for _, inc := range got {
				ids = append(ids, inc.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestProgressStep(t *testing.T) {
	tests := []struct {
		status  domain.IncidentStatus
		step    int
		onTrack bool
	}{
		{domain.IncidentStatusNew, 0, true},
		{domain.IncidentStatusAcknowledged, 1, true},
		{domain.IncidentStatusInProgress, 2, true},
		{domain.IncidentStatusResolved, 3, true},
		{domain.IncidentStatusClosed, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			step, ok := ProgressStep(tt.status)
			assert.Equal(t, tt.step, step)
			assert.Equal(t, tt.onTrack, ok)
		})
	}
}

func TestStats(t *testing.T) {
	// Arrange
	now := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	incidents := []*domain.Incident{
		buildIncident("INC-1", func(i *domain.Incident) { i.SLADeadline = now.Add(-time.Hour) }),
		buildIncident("INC-2", func(i *domain.Incident) { i.Status = domain.IncidentStatusAcknowledged }),
		buildIncident("INC-3", func(i *domain.Incident) { i.Status = domain.IncidentStatusInProgress }),
		buildIncident("INC-4", func(i *domain.Incident) {
			i.Status = domain.IncidentStatusResolved
			i.SLADeadline = now.Add(-time.Hour)
		}),
		buildIncident("INC-5", func(i *domain.Incident) { i.Status = domain.IncidentStatusClosed }),
	}

	// Act
	stats := Stats(incidents, now)

	// Assert
	assert.Equal(t, IncidentStats{
		Total:        5,
		New:          1,
		Acknowledged: 1,
		InProgress:   1,
		Resolved:     1,
		Closed:       1,
		Overdue:      1,
	}, stats)
}

func TestCountByStatusAndPriority(t *testing.T) {
	incidents := []*domain.Incident{
		buildIncident("INC-1", func(i *domain.Incident) { i.Priority = domain.PriorityCritical }),
		buildIncident("INC-2", nil),
		buildIncident("INC-3", func(i *domain.Incident) { i.Status = domain.IncidentStatusResolved }),
	}

	assert.Equal(t, 2, CountByStatus(incidents)[domain.IncidentStatusNew])
	assert.Equal(t, 1, CountByStatus(incidents)[domain.IncidentStatusResolved])
	assert.Equal(t, 1, CountByPriority(incidents)[domain.PriorityCritical])
	assert.Equal(t, 2, CountByPriority(incidents)[domain.PriorityMedium])
}

func TestActiveIncidents(t *testing.T) {
	incidents := []*domain.Incident{
		buildIncident("INC-1", nil),
		buildIncident("INC-2", func(i *domain.Incident) { i.Status = domain.IncidentStatusResolved }),
		buildIncident("INC-3", func(i *domain.Incident) { i.Status = domain.IncidentStatusClosed }),
		buildIncident("INC-4", func(i *domain.Incident) { i.Status = domain.IncidentStatusInProgress }),
	}

	active := ActiveIncidents(incidents)

	require.Len(t, active, 2)
	assert.Equal(t, "INC-1", active[0].ID)
	assert.Equal(t, "INC-4", active[1].ID)
}
