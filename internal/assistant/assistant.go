// Package assistant runs the interaction state machine: a single
// reducer goroutine consumes events from the listener, the model, and
// the speaker, and drives the session through
// idle -> listening -> thinking -> speaking -> idle.
package assistant

import (
	"context"

	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/logger"
)

// Advisory texts surfaced to the user.
const (
	// AdvisoryModelFailed is shown when a model call fails for any
	// reason.
	AdvisoryModelFailed = "Failed to process your request. Please try again."
	// AdvisoryModelUnavailable is shown when the model client could not
	// be initialized; it persists for the whole session.
	AdvisoryModelUnavailable = "Assistant is unavailable: missing or invalid API key."
)

// advisoryRecognition formats a recognition failure advisory.
func advisoryRecognition(code string) string {
	return "Speech recognition error: " + code
}

// Option configures the Assistant.
type Option func(*Assistant)

// WithPublisher forwards every appended turn to p.
func WithPublisher(p domain.TurnPublisher) Option {
	return func(a *Assistant) { a.publisher = p }
}

// Assistant owns the session and serializes all state transitions
// through one event loop. Adapters may be nil: a nil listener means
// speech capture is unavailable (the toggle is inert), a nil model
// disables the send path, a nil speaker skips synthesis.
type Assistant struct {
	sess      *domain.Session
	listener  domain.Listener
	model     domain.ModelClient
	speaker   domain.Speaker
	publisher domain.TurnPublisher
	log       *logger.Logger

	events  chan event
	updates chan struct{}

	// permanentAdvisory is restored whenever the transient advisory is
	// cleared. Set when the model client is unusable for the session.
	permanentAdvisory string
}

// New creates an Assistant around the given session and adapters.
func New(sess *domain.Session, listener domain.Listener, model domain.ModelClient, speaker domain.Speaker, log *logger.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		sess:     sess,
		listener: listener,
		model:    model,
		speaker:  speaker,
		log:      log,
		events:   make(chan event, 16),
		updates:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.listener == nil {
		sess.MarkSpeechUnavailable()
	}
	if a.model == nil {
		a.permanentAdvisory = AdvisoryModelUnavailable
		sess.SetAdvisory(a.permanentAdvisory)
	}
	return a
}

// Toggle is the single user control: start listening when idle, cancel
// whatever is active otherwise.
func (a *Assistant) Toggle() {
	select {
	case a.events <- event{kind: evToggle}:
	default:
		a.log.Warn("assistant: toggle dropped, event queue full")
	}
}

// Snapshot returns the current session state for rendering.
func (a *Assistant) Snapshot() domain.Snapshot {
	return a.sess.Snapshot()
}

// Updates signals (coalesced) whenever the session state changes.
func (a *Assistant) Updates() <-chan struct{} {
	return a.updates
}

// Run consumes events until ctx is cancelled. Call in a goroutine.
func (a *Assistant) Run(ctx context.Context) {
	if a.listener != nil {
		go a.pumpListener(ctx)
	}
	if a.speaker != nil {
		go a.pumpSpeaker(ctx)
	}

	a.log.Info("assistant: started (session=%s)", a.sess.ID())
	a.signal()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("assistant: stopped")
			return
		case ev := <-a.events:
			a.handle(ctx, ev)
			a.signal()
		}
	}
}

// signal notifies the view that the session changed. Coalescing: a
// pending notification absorbs new ones.
func (a *Assistant) signal() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

// post delivers an adapter event to the reducer. Only called from
// goroutines outside the event loop, so a blocking send cannot
// deadlock.
func (a *Assistant) post(ev event) {
	a.events <- ev
}

func (a *Assistant) pumpListener(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-a.listener.Results():
			switch {
			case res.Code != "":
				a.post(event{kind: evListenError, code: res.Code})
			case res.Text != "":
				a.post(event{kind: evTranscript, text: res.Text})
			default:
				a.post(event{kind: evListenEnded})
			}
		}
	}
}

func (a *Assistant) pumpSpeaker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-a.speaker.Done():
			a.post(event{kind: evSpeechDone, err: err})
		}
	}
}

// clearAdvisory resets the transient advisory, restoring the permanent
// one when set.
func (a *Assistant) clearAdvisory() {
	if a.permanentAdvisory != "" {
		a.sess.SetAdvisory(a.permanentAdvisory)
		return
	}
	a.sess.ClearAdvisory()
}

// handle applies one event to the session. All transitions live here.
func (a *Assistant) handle(ctx context.Context, ev event) {
	phase := a.sess.Phase()

	switch ev.kind {
	case evToggle:
		a.handleToggle(ctx, phase)

	case evTranscript:
		if phase != domain.PhaseListening {
			a.log.Debug("assistant: transcript in %s ignored", phase)
			return
		}
		a.handleTranscript(ctx, ev.text)

	case evListenError:
		if phase != domain.PhaseListening {
			return
		}
		a.log.Warn("assistant: recognition error: %s", ev.code)
		a.sess.SetAdvisory(advisoryRecognition(ev.code))
		a.sess.SetPhase(domain.PhaseIdle)

	case evListenEnded:
		if phase != domain.PhaseListening {
			return
		}
		a.sess.SetPhase(domain.PhaseIdle)

	case evReply:
		if phase != domain.PhaseThinking {
			return
		}
		a.handleReply(ev.text)

	case evModelError:
		if phase != domain.PhaseThinking {
			return
		}
		a.log.Error("assistant: model call failed: %v", ev.err)
		a.sess.SetAdvisory(AdvisoryModelFailed)
		a.sess.SetPhase(domain.PhaseIdle)

	case evSpeechDone:
		if phase != domain.PhaseSpeaking {
			return
		}
		if ev.err != nil {
			a.log.Error("assistant: synthesis failed: %v", ev.err)
		}
		a.sess.SetPhase(domain.PhaseIdle)
	}
}

func (a *Assistant) handleToggle(ctx context.Context, phase domain.Phase) {
	if a.sess.SpeechUnavailable() {
		a.log.Debug("assistant: toggle ignored, speech unavailable")
		return
	}

	switch phase {
	case domain.PhaseIdle:
		a.clearAdvisory()
		a.sess.SetPhase(domain.PhaseListening)
		a.listener.Start(ctx)

	case domain.PhaseListening:
		a.listener.Stop()
		a.sess.SetPhase(domain.PhaseIdle)

	case domain.PhaseThinking:
		// A model call is outstanding; letting the user re-trigger
		// listening here could race two replies into the history.
		a.log.Debug("assistant: toggle ignored while thinking")

	case domain.PhaseSpeaking:
		if a.speaker != nil {
			a.speaker.Interrupt()
		}
		a.sess.SetPhase(domain.PhaseIdle)
	}
}

func (a *Assistant) handleTranscript(ctx context.Context, transcript string) {
	turn := a.sess.AppendUser(transcript)
	a.publish(turn)
	a.log.Info("assistant: heard %q", transcript)

	if a.model == nil {
		a.sess.SetAdvisory(AdvisoryModelUnavailable)
		a.sess.SetPhase(domain.PhaseIdle)
		return
	}

	a.sess.SetPhase(domain.PhaseThinking)

	go func() {
		reply, err := a.model.Send(ctx, transcript)
		if err != nil {
			a.post(event{kind: evModelError, err: err})
			return
		}
		a.post(event{kind: evReply, text: reply})
	}()
}

func (a *Assistant) handleReply(reply string) {
	turn := a.sess.AppendAssistant(reply)
	a.publish(turn)

	if a.speaker == nil {
		a.sess.SetPhase(domain.PhaseIdle)
		return
	}

	a.sess.SetPhase(domain.PhaseSpeaking)
	a.speaker.Speak(reply)
}

func (a *Assistant) publish(turn domain.Turn) {
	if a.publisher != nil {
		a.publisher.Publish(turn)
	}
}
