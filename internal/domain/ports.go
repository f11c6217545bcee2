package domain

import "context"

// ListenResult is the outcome of one capture pass. Exactly one of the
// fields is meaningful: Text carries a finalized, trimmed transcript;
// Code carries a recognition error code. Both empty means the capture
// ended without usable speech (manual stop or pure silence after an
// interrupt).
type ListenResult struct {
	Text string
	Code string
}

// Listener captures a single utterance per Start call. Implementations
// are non-continuous: at most one result is delivered per capture pass.
type Listener interface {
	// Start begins a capture pass. Calling Start while a pass is
	// already running is a no-op.
	Start(ctx context.Context)
	// Stop ends the current capture pass early. Safe to call when not
	// capturing.
	Stop()
	// Results delivers one ListenResult per capture pass.
	Results() <-chan ListenResult
}

// ModelClient produces a reply for a single transcript. Each call is a
// fresh stateless exchange: no conversation history is carried to the
// model.
type ModelClient interface {
	Send(ctx context.Context, transcript string) (string, error)
}

// Speaker voices assistant replies. At most one utterance is active at
// a time: Speak cancels any in-flight utterance first.
type Speaker interface {
	// Speak queues the text for synthesis and playback. Non-blocking.
	Speak(text string)
	// Interrupt cancels the active utterance, if any.
	Interrupt()
	// Done delivers one value per Speak call when synthesis and
	// playback finish: nil on success, the failure otherwise.
	Done() <-chan error
}

// TurnPublisher receives every turn as it is appended to the history.
// Implementations must not block.
type TurnPublisher interface {
	Publish(turn Turn)
}
