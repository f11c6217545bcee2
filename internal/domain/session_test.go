package domain

import "testing"

func TestSessionHistoryAppendOnly(t *testing.T) {
	s := NewSession()

	if s.Len() != 0 {
		t.Fatalf("new session has %d turns", s.Len())
	}

	u := s.AppendUser("what is the capital of france?")
	a := s.AppendAssistant("Paris is the capital of France.")

	if s.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", s.Len())
	}
	if u.ID == "" || a.ID == "" {
		t.Fatal("turn IDs are empty")
	}
	if u.ID == a.ID {
		t.Fatal("turn IDs are not unique")
	}

	snap := s.Snapshot()
	if snap.Turns[0].Role != RoleUser || snap.Turns[1].Role != RoleAssistant {
		t.Fatalf("expected user then assistant, got %s then %s", snap.Turns[0].Role, snap.Turns[1].Role)
	}
	if snap.Turns[0].Text != "what is the capital of france?" {
		t.Fatalf("user text mangled: %q", snap.Turns[0].Text)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSession()
	s.AppendUser("hello")

	snap := s.Snapshot()
	snap.Turns[0].Text = "mutated"

	if got := s.Snapshot().Turns[0].Text; got != "hello" {
		t.Fatalf("snapshot mutation leaked into session: %q", got)
	}
}

func TestAdvisory(t *testing.T) {
	s := NewSession()

	if s.Advisory() != "" {
		t.Fatalf("fresh session has advisory %q", s.Advisory())
	}

	s.SetAdvisory("first")
	s.SetAdvisory("second")
	if s.Advisory() != "second" {
		t.Fatalf("advisory not replaced: %q", s.Advisory())
	}

	s.ClearAdvisory()
	if s.Advisory() != "" {
		t.Fatalf("advisory not cleared: %q", s.Advisory())
	}
}

func TestPhase(t *testing.T) {
	s := NewSession()

	if s.Phase() != PhaseIdle {
		t.Fatalf("fresh session in phase %s", s.Phase())
	}
	if s.Phase().Busy() {
		t.Fatal("idle reported busy")
	}

	for _, p := range []Phase{PhaseListening, PhaseThinking, PhaseSpeaking} {
		s.SetPhase(p)
		if s.Phase() != p {
			t.Fatalf("expected %s, got %s", p, s.Phase())
		}
		if !s.Phase().Busy() {
			t.Fatalf("%s not reported busy", p)
		}
	}
}

func TestStringers(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{RoleUser.String(), "user"},
		{RoleAssistant.String(), "assistant"},
		{Role(99).String(), "unknown"},
		{PhaseIdle.String(), "idle"},
		{PhaseListening.String(), "listening"},
		{PhaseThinking.String(), "thinking"},
		{PhaseSpeaking.String(), "speaking"},
		{Phase(99).String(), "unknown"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSpeechUnavailable(t *testing.T) {
	s := NewSession()
	if s.SpeechUnavailable() {
		t.Fatal("fresh session reports speech unavailable")
	}
	s.MarkSpeechUnavailable()
	if !s.SpeechUnavailable() {
		t.Fatal("mark did not stick")
	}
	if !s.Snapshot().SpeechUnavailable {
		t.Fatal("snapshot missed the flag")
	}
}
