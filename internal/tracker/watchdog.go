package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WatchdogConfig contains watchdog configuration.
type WatchdogConfig struct {
	PollInterval time.Duration
}

// DefaultWatchdogConfig returns default watchdog configuration.
func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		PollInterval: 30 * time.Second,
	}
}

// Watchdog periodically scans the store for incidents past their SLA
// deadline, logging each one the first time it goes overdue and publishing
// state gauges. It only observes: the watchdog never dispatches actions or
// changes incident state.
type Watchdog struct {
	config WatchdogConfig
	store  *Store
	now    func() time.Time

	mu       sync.Mutex
	reported map[string]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatchdog creates a new SLA watchdog over the store.
func NewWatchdog(config WatchdogConfig, store *Store) *Watchdog {
	return &Watchdog{
		config:   config,
		store:    store,
		now:      time.Now,
		reported: make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the watchdog goroutine.
func (w *Watchdog) Start(ctx context.Context) {
	slog.Info("starting sla watchdog", "poll_interval", w.config.PollInterval)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the watchdog.
func (w *Watchdog) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("sla watchdog stopped")
}

func (w *Watchdog) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan takes one snapshot, publishes gauges and logs newly overdue
// incidents. Incidents that leave the overdue set (resolved, closed or
// reprioritized away) are forgotten so a later breach is reported again.
func (w *Watchdog) scan() {
	now := w.now()
	snap := w.store.Snapshot()

	RecordStateGauges(snap, now)

	overdue := OverdueIncidents(snap.Incidents, now)

	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]struct{}, len(overdue))
	for _, inc := range overdue {
		current[inc.ID] = struct{}{}
		if _, seen := w.reported[inc.ID]; seen {
			continue
		}
		slog.Warn("incident overdue",
			"incident_id", inc.ID,
			"priority", inc.Priority,
			"status", inc.Status,
			"sla_deadline", inc.SLADeadline,
			"overdue_by", now.Sub(inc.SLADeadline).Round(time.Second))
	}
	w.reported = current
}
