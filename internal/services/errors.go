package services

import "errors"

var (
	// ErrDegeneratePath is returned when a path has fewer than two points or zero length.
	ErrDegeneratePath = errors.New("path must have at least 2 distinct points")
	// ErrNoWaypoints is returned when none of a vehicle's packages could be placed on its path.
	ErrNoWaypoints = errors.New("no deliverable waypoints on path")
	// ErrSessionActive is returned when a vehicle already runs a session.
	ErrSessionActive = errors.New("vehicle already has an active session")
	// ErrSessionNotFound is returned for vehicles without a session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInactive is returned by Tick when the session is not running;
	// callers treat it as a no-op.
	ErrSessionInactive = errors.New("session is not active")
	// ErrSessionComplete is returned when starting a session that already finished.
	ErrSessionComplete = errors.New("session is complete")
)
