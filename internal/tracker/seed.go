package tracker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/actworks/control-tower/internal/domain"
)

// Development seed data. Generates plausible warehouse incidents across the
// facility network so the dashboard has something to show on a fresh start.

var seedFacilities = []string{
	"Rochelle Distribution Center",
	"Gateway Logistics Hub",
	"Russellville Fulfillment Center",
}

var seedZones = []string{
	"ASRS Aisle 4",
	"ASRS Crane 2",
	"Dock Door 12",
	"Cold Storage Zone B",
	"Receiving Bay 3",
	"Packing Line 7",
	"Battery Charging Station",
	"Mezzanine Level 2",
}

var seedTitles = map[domain.AlertType][]string{
	domain.AlertTypeTemperature: {
		"Temperature excursion in cold storage",
		"Freezer unit reading above threshold",
	},
	domain.AlertTypeHumidity: {
		"Humidity spike detected",
		"Dehumidifier offline",
	},
	domain.AlertTypeSecurity: {
		"Unauthorized access attempt at dock",
		"Badge reader tamper alarm",
	},
	domain.AlertTypeEquipment: {
		"Conveyor motor fault",
		"ASRS crane positioning error",
		"Forklift hydraulic leak reported",
	},
	domain.AlertTypeInventory: {
		"Cycle count variance above tolerance",
		"Pallet location mismatch",
	},
	domain.AlertTypeSafety: {
		"Spill reported on picking floor",
		"Emergency exit obstruction",
	},
}

var seedAlertTypes = []domain.AlertType{
	domain.AlertTypeTemperature,
	domain.AlertTypeHumidity,
	domain.AlertTypeSecurity,
	domain.AlertTypeEquipment,
	domain.AlertTypeInventory,
	domain.AlertTypeSafety,
}

var seedPriorities = []domain.IncidentPriority{
	domain.PriorityLow,
	domain.PriorityMedium,
	domain.PriorityHigh,
	domain.PriorityCritical,
}

var seedStatuses = []domain.IncidentStatus{
	domain.IncidentStatusNew,
	domain.IncidentStatusAcknowledged,
	domain.IncidentStatusInProgress,
	domain.IncidentStatusResolved,
	domain.IncidentStatusClosed,
}

// SeedIncidents loads count generated incidents into the store. Users must
// be non-empty; reporters and assignees are drawn from it.
func SeedIncidents(store *Store, count int, users []domain.User) error {
	if len(users) == 0 {
		return fmt.Errorf("seed incidents: no users to report as")
	}

	now := time.Now()
	incidents := make([]*domain.Incident, 0, count)
	for i := 0; i < count; i++ {
		incidents = append(incidents, seedIncident(now, users))
	}

	store.Dispatch(SetIncidents{Incidents: incidents})

	slog.Info("seeded mock incidents", "count", count)
	return nil
}

func seedIncident(now time.Time, users []domain.User) *domain.Incident {
	alertType := seedAlertTypes[gofakeit.Number(0, len(seedAlertTypes)-1)]
	priority := seedPriorities[gofakeit.Number(0, len(seedPriorities)-1)]
	status := seedStatuses[gofakeit.Number(0, len(seedStatuses)-1)]
	titles := seedTitles[alertType]

	facility := seedFacilities[gofakeit.Number(0, len(seedFacilities)-1)]
	location := fmt.Sprintf("%s - %s", facility, seedZones[gofakeit.Number(0, len(seedZones)-1)])

	createdAt := now.Add(-time.Duration(gofakeit.Number(5, 72*60)) * time.Minute)
	reporter := users[gofakeit.Number(0, len(users)-1)]

	inc := &domain.Incident{
		ID:          newIncidentID(location),
		Title:       titles[gofakeit.Number(0, len(titles)-1)],
		Description: gofakeit.Sentence(12),
		Status:      status,
		Priority:    priority,
		AlertType:   alertType,
		Location:    location,
		ReportedBy:  reporter,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Notes:       []domain.Note{},
		SLADeadline: createdAt.Add(priority.SLAWindow()),
	}

	// Walk the incident forward so timestamps are consistent with status.
	step, _ := ProgressStep(status)
	if status == domain.IncidentStatusClosed {
		step = 4
	}
	cursor := createdAt
	if step >= 1 {
		cursor = cursor.Add(time.Duration(gofakeit.Number(2, 30)) * time.Minute)
		ack := cursor
		inc.AcknowledgedAt = &ack
		inc.UpdatedAt = cursor
	}
	if step >= 2 {
		assignee := users[gofakeit.Number(0, len(users)-1)]
		inc.AssignedTo = &assignee
		cursor = cursor.Add(time.Duration(gofakeit.Number(5, 60)) * time.Minute)
		inc.UpdatedAt = cursor
	}
	if step >= 3 {
		cursor = cursor.Add(time.Duration(gofakeit.Number(10, 180)) * time.Minute)
		resolved := cursor
		inc.ResolvedAt = &resolved
		inc.UpdatedAt = cursor
	}
	if step >= 4 {
		cursor = cursor.Add(time.Duration(gofakeit.Number(5, 60)) * time.Minute)
		closed := cursor
		inc.ClosedAt = &closed
		inc.UpdatedAt = cursor
	}

	if gofakeit.Bool() {
		inc.Notes = append(inc.Notes, domain.Note{
			ID:         uuid.New().String(),
			Content:    strings.TrimSpace(gofakeit.Sentence(8)),
			Author:     reporter,
			CreatedAt:  inc.UpdatedAt,
			IsInternal: gofakeit.Bool(),
		})
	}

	return inc
}
