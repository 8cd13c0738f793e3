package domain

// Lifecycle status of a delivery session.
type SessionStatus string

const (
	SessionCreated  SessionStatus = "created"
	SessionActive   SessionStatus = "active"
	SessionComplete SessionStatus = "complete"
	SessionStopped  SessionStatus = "stopped"
)

// Terminal reports whether the session can no longer be started.
func (s SessionStatus) Terminal() bool {
	return s == SessionComplete
}
