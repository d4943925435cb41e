package tracker

import "errors"

// Incident workflow errors.
var (
	// ErrIncidentNotFound is returned when no incident has the requested ID.
	ErrIncidentNotFound = errors.New("incident not found")
	// ErrInvalidStatus is returned for a status outside the lifecycle set.
	ErrInvalidStatus = errors.New("invalid incident status")
	// ErrInvalidTransition is returned when the requested status change is
	// not a legal step of the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrIncidentSettled is returned when escalating a resolved or closed
	// incident.
	ErrIncidentSettled = errors.New("incident already settled")
	// ErrUnknownUser is returned when an assignee is not in the directory.
	ErrUnknownUser = errors.New("user not found in directory")
)
