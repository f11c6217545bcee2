package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the interaction state of the assistant. The phases are kept
// distinct (rather than a single busy flag) so each subsystem's
// completion and failure paths have an unambiguous exit transition.
type Phase int

const (
	// PhaseIdle — waiting for the user to toggle listening.
	PhaseIdle Phase = iota
	// PhaseListening — microphone capture in progress.
	PhaseListening
	// PhaseThinking — transcript sent, waiting for the model reply.
	PhaseThinking
	// PhaseSpeaking — reply synthesis/playback in progress.
	PhaseSpeaking
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseThinking:
		return "thinking"
	case PhaseSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Busy reports whether the phase is anything other than idle.
func (p Phase) Busy() bool { return p != PhaseIdle }

// Snapshot is a point-in-time copy of the session, safe to hand to the
// view layer.
type Snapshot struct {
	Phase             Phase
	Turns             []Turn
	Advisory          string
	SpeechUnavailable bool
}

// Session holds the conversation state: the append-only turn history,
// the current phase, and the advisory slot. All methods are safe for
// concurrent use. History is destroyed only when the whole session is
// discarded; there is no clear operation.
type Session struct {
	id string

	mu                sync.RWMutex
	turns             []Turn
	phase             Phase
	advisory          string
	speechUnavailable bool
	startedAt         time.Time
}

// NewSession creates an empty idle session.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) append(role Role, text string) Turn {
	turn := Turn{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		At:   time.Now(),
	}
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
	return turn
}

// AppendUser appends a user turn to the history.
func (s *Session) AppendUser(text string) Turn {
	return s.append(RoleUser, text)
}

// AppendAssistant appends an assistant turn to the history.
func (s *Session) AppendAssistant(text string) Turn {
	return s.append(RoleAssistant, text)
}

// Len returns the number of turns in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Phase returns the current interaction phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetPhase updates the interaction phase.
func (s *Session) SetPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// Advisory returns the current advisory message, or "" when none is set.
func (s *Session) Advisory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.advisory
}

// SetAdvisory replaces the advisory message. Advisories are dismissed
// only by replacement or by ClearAdvisory.
func (s *Session) SetAdvisory(msg string) {
	s.mu.Lock()
	s.advisory = msg
	s.mu.Unlock()
}

// ClearAdvisory removes the advisory message.
func (s *Session) ClearAdvisory() {
	s.mu.Lock()
	s.advisory = ""
	s.mu.Unlock()
}

// MarkSpeechUnavailable records that the speech capture capability is
// missing for the whole session.
func (s *Session) MarkSpeechUnavailable() {
	s.mu.Lock()
	s.speechUnavailable = true
	s.mu.Unlock()
}

// SpeechUnavailable reports whether speech capture is missing.
func (s *Session) SpeechUnavailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speechUnavailable
}

// Snapshot returns a copy of the session state. The returned turn slice
// is owned by the caller.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return Snapshot{
		Phase:             s.phase,
		Turns:             turns,
		Advisory:          s.advisory,
		SpeechUnavailable: s.speechUnavailable,
	}
}
