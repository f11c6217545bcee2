// Package domain holds the conversation model shared across layers:
// turns, the session state holder, and the ports implemented by the
// speech, model, and feed adapters.
package domain

import "time"

// Role identifies who produced a turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is a single entry in the conversation history. Immutable once
// appended.
type Turn struct {
	ID   string
	Role Role
	Text string
	At   time.Time
}
