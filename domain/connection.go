package domain

import "github.com/google/uuid"

// ConnectionID identifies one live transport connection.
// It is assigned on connect and never reused after disconnect.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

// SessionState is the lifecycle of one connection.
type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionIdentified
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "connected-anonymous"
	case SessionIdentified:
		return "connected-identified"
	default:
		return "closed"
	}
}
