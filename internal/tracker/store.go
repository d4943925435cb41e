package tracker

import (
	"sync"
	"time"

	"github.com/actworks/control-tower/internal/domain"
)

// Snapshot is an immutable view of tracker state. Dispatch returns a fresh
// snapshot on every call; slices and incidents reachable from a snapshot are
// never mutated afterwards, so holders may read without locking. Untouched
// incidents are shared between consecutive snapshots.
type Snapshot struct {
	Incidents        []*domain.Incident
	SelectedIncident *domain.Incident
	Users            []domain.User
}

// Store holds the live incident collection. It is the single source of truth
// for incident state: all mutation goes through Dispatch, which serializes
// writers behind a mutex and applies actions atomically. The store performs
// no validation and no authorization; a dispatch either applies fully or is
// a no-op (unknown incident ID).
type Store struct {
	mu    sync.RWMutex
	state Snapshot
	now   func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the store's time source. Used in tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store with the given user directory snapshot.
func NewStore(users []domain.User, opts ...StoreOption) *Store {
	s := &Store{
		state: Snapshot{
			Incidents: []*domain.Incident{},
			Users:     users,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state without dispatching.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetUsers replaces the user directory snapshot exposed to readers.
func (s *Store) SetUsers(users []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Snapshot{
		Incidents:        s.state.Incidents,
		SelectedIncident: s.state.SelectedIncident,
		Users:            users,
	}
}

// Dispatch applies an action and returns the resulting snapshot. Actions
// referencing an unknown incident ID leave the state unchanged and return
// the current snapshot; no error is reported for them.
func (s *Store) Dispatch(action Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocked(action)
	return s.state
}

// DispatchIf applies an action only if check accepts the incident with the
// given ID as it exists at dispatch time. The check runs under the same write
// lock as the apply, so no other dispatch can land between the check and the
// action taking effect. The check receives nil when the ID is unknown. When
// the check returns an error the state is left unchanged and the error is
// returned along with the current snapshot.
func (s *Store) DispatchIf(id string, check func(*domain.Incident) error, action Action) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.Incident
	for _, inc := range s.state.Incidents {
		if inc.ID == id {
			current = inc
			break
		}
	}
	if err := check(current); err != nil {
		return s.state, err
	}

	s.applyLocked(action)
	return s.state, nil
}

// applyLocked applies an action to the state. Caller must hold the write
// lock.
func (s *Store) applyLocked(action Action) {
	recordDispatch(action.actionName())

	switch a := action.(type) {
	case SetIncidents:
		incidents := make([]*domain.Incident, len(a.Incidents))
		copy(incidents, a.Incidents)
		s.state = Snapshot{
			Incidents:        incidents,
			SelectedIncident: s.state.SelectedIncident,
			Users:            s.state.Users,
		}

	case AddIncident:
		inc := a.Incident
		incidents := make([]*domain.Incident, 0, len(s.state.Incidents)+1)
		incidents = append(incidents, &inc)
		incidents = append(incidents, s.state.Incidents...)
		s.state = Snapshot{
			Incidents:        incidents,
			SelectedIncident: s.state.SelectedIncident,
			Users:            s.state.Users,
		}

	case SelectIncident:
		s.state = Snapshot{
			Incidents:        s.state.Incidents,
			SelectedIncident: a.Incident,
			Users:            s.state.Users,
		}

	case UpdateStatus:
		s.updateIncident(a.IncidentID, func(inc *domain.Incident) {
			now := s.now()
			inc.Status = a.Status
			inc.UpdatedAt = now
			// Lifecycle timestamps record first arrival only. A reopened
			// incident keeps its historical acknowledged/resolved/closed
			// marks.
			switch a.Status {
			case domain.IncidentStatusAcknowledged:
				if inc.AcknowledgedAt == nil {
					inc.AcknowledgedAt = &now
				}
			case domain.IncidentStatusResolved:
				if inc.ResolvedAt == nil {
					inc.ResolvedAt = &now
				}
			case domain.IncidentStatusClosed:
				if inc.ClosedAt == nil {
					inc.ClosedAt = &now
				}
			}
		})

	case AssignIncident:
		s.updateIncident(a.IncidentID, func(inc *domain.Incident) {
			user := a.User
			inc.AssignedTo = &user
			inc.UpdatedAt = s.now()
		})

	case AddNote:
		s.updateIncident(a.IncidentID, func(inc *domain.Incident) {
			notes := make([]domain.Note, 0, len(inc.Notes)+1)
			notes = append(notes, inc.Notes...)
			notes = append(notes, a.Note)
			inc.Notes = notes
			inc.UpdatedAt = s.now()
		})

	case EscalateIncident:
		s.updateIncident(a.IncidentID, func(inc *domain.Incident) {
			inc.EscalationLevel++
			inc.Priority = inc.Priority.Next()
			inc.UpdatedAt = s.now()
		})
	}
}

// updateIncident applies mutate to a copy of the incident with the given ID
// and installs a new snapshot sharing all other incidents. No-op when the ID
// is unknown. Caller must hold the write lock.
func (s *Store) updateIncident(id string, mutate func(*domain.Incident)) {
	idx := -1
	for i, inc := range s.state.Incidents {
		if inc.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	updated := *s.state.Incidents[idx]
	mutate(&updated)

	incidents := make([]*domain.Incident, len(s.state.Incidents))
	copy(incidents, s.state.Incidents)
	incidents[idx] = &updated

	selected := s.state.SelectedIncident
	if selected != nil && selected.ID == id {
		selected = &updated
	}

	s.state = Snapshot{
		Incidents:        incidents,
		SelectedIncident: selected,
		Users:            s.state.Users,
	}
}
