package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actworks/control-tower/internal/domain"
)

func TestWatchdogScan_NeverMutatesState(t *testing.T) {
	// Arrange
	store := NewStore(nil)
	inc := newTestIncident("INC-1", domain.IncidentStatusNew)
	inc.SLADeadline = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	before := store.Dispatch(AddIncident{Incident: inc})

	w := NewWatchdog(DefaultWatchdogConfig(), store)
	w.now = func() time.Time { return inc.SLADeadline.Add(time.Hour) }

	// Act
	w.scan()

	// Assert — observation only, same incident pointer
	after := store.Snapshot()
	assert.Same(t, before.Incidents[0], after.Incidents[0])
	assert.Equal(t, domain.IncidentStatusNew, after.Incidents[0].Status)
}

func TestWatchdogScan_ReportsBreachOnce(t *testing.T) {
	// Arrange
	store := NewStore(nil)
	inc := newTestIncident("INC-1", domain.IncidentStatusNew)
	inc.SLADeadline = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store.Dispatch(AddIncident{Incident: inc})

	w := NewWatchdog(DefaultWatchdogConfig(), store)
	w.now = func() time.Time { return inc.SLADeadline.Add(time.Hour) }

	// Act
	w.scan()
	w.scan()

	// Assert — the incident stays in the reported set while overdue
	require.Contains(t, w.reported, "INC-1")
	assert.Len(t, w.reported, 1)
}

func TestWatchdogScan_ForgetsSettledIncidents(t *testing.T) {
	// Arrange
	store := NewStore(nil)
	inc := newTestIncident("INC-1", domain.IncidentStatusInProgress)
	inc.SLADeadline = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store.Dispatch(AddIncident{Incident: inc})

	w := NewWatchdog(DefaultWatchdogConfig(), store)
	w.now = func() time.Time { return inc.SLADeadline.Add(time.Hour) }

	w.scan()
	require.Contains(t, w.reported, "INC-1")

	// Act — incident gets resolved, next scan forgets it
	store.Dispatch(UpdateStatus{IncidentID: "INC-1", Status: domain.IncidentStatusResolved})
	w.scan()

	// Assert
	assert.NotContains(t, w.reported, "INC-1")
}

func TestWatchdogStartStop(t *testing.T) {
	store := NewStore(nil)
	w := NewWatchdog(WatchdogConfig{PollInterval: 10 * time.Millisecond}, store)

	w.Start(t.Context())
	time.Sleep(30 * time.Millisecond)
	w.Stop()
}
