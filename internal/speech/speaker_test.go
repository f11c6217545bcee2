package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/softspoken/parley/internal/logger"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	err   error
	audio []byte
}

func (f *fakeSynth) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSink struct {
	plays atomic.Int32
	stops atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeSink) Play(ctx context.Context, wav []byte) error {
	f.plays.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSink) Stop() {
	f.stops.Add(1)
}

func newTestSpeaker(synth *fakeSynth, sink *fakeSink) *Speaker {
	log := logger.New(logger.LevelOff, nil)
	return &Speaker{
		tts:    synth,
		player: sink,
		cache:  NewCache("en-US-AvaNeural", log),
		voice:  "en-US-AvaNeural",
		log:    log,
		done:   make(chan error, 4),
	}
}

func waitDone(t *testing.T, s *Speaker) error {
	t.Helper()
	select {
	case err := <-s.Done():
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for done signal")
		return nil
	}
}

func TestSpeakReportsSuccess(t *testing.T) {
	synth := &fakeSynth{audio: []byte("wav")}
	sink := &fakeSink{}
	s := newTestSpeaker(synth, sink)

	s.Speak("Hello there.")

	if err := waitDone(t, s); err != nil {
		t.Fatalf("done = %v, want nil", err)
	}
	if sink.plays.Load() != 1 {
		t.Fatalf("plays = %d, want 1", sink.plays.Load())
	}
}

func TestSpeakStripsMarkup(t *testing.T) {
	synth := &fakeSynth{audio: []byte("wav")}
	s := newTestSpeaker(synth, &fakeSink{})

	s.Speak("**Bold** and `code` here.")
	waitDone(t, s)

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.calls) != 1 {
		t.Fatalf("synth calls = %d, want 1", len(synth.calls))
	}
	if got, want := synth.calls[0], "Bold and code here."; got != want {
		t.Fatalf("synthesized %q, want %q", got, want)
	}
}

func TestSpeakUsesCacheOnRepeat(t *testing.T) {
	synth := &fakeSynth{audio: []byte("wav")}
	sink := &fakeSink{}
	s := newTestSpeaker(synth, sink)

	s.Speak("Same line twice.")
	waitDone(t, s)
	s.Speak("Same line twice.")
	waitDone(t, s)

	if got := synth.callCount(); got != 1 {
		t.Fatalf("synth calls = %d, want 1 (second should hit cache)", got)
	}
	if sink.plays.Load() != 2 {
		t.Fatalf("plays = %d, want 2", sink.plays.Load())
	}
}

func TestSpeakReportsSynthesisFailure(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	synth := &fakeSynth{err: wantErr}
	s := newTestSpeaker(synth, &fakeSink{})

	s.Speak("This will fail.")

	if err := waitDone(t, s); !errors.Is(err, wantErr) {
		t.Fatalf("done = %v, want %v", err, wantErr)
	}
}

func TestSpeakReportsPlaybackFailure(t *testing.T) {
	wantErr := errors.New("device gone")
	synth := &fakeSynth{audio: []byte("wav")}
	sink := &fakeSink{err: wantErr}
	s := newTestSpeaker(synth, sink)

	s.Speak("Playback breaks.")

	if err := waitDone(t, s); !errors.Is(err, wantErr) {
		t.Fatalf("done = %v, want %v", err, wantErr)
	}
}

func TestInterruptedUtteranceStaysSilent(t *testing.T) {
	synth := &fakeSynth{audio: []byte("wav")}
	sink := &fakeSink{delay: 200 * time.Millisecond}
	s := newTestSpeaker(synth, sink)

	s.Speak("A long utterance.")
	time.Sleep(50 * time.Millisecond)
	s.Interrupt()

	select {
	case err := <-s.Done():
		t.Fatalf("interrupted utterance reported %v, want silence", err)
	case <-time.After(500 * time.Millisecond):
	}
	if sink.stops.Load() == 0 {
		t.Fatal("interrupt did not stop the player")
	}
}

func TestSpeakSupersedesInFlightUtterance(t *testing.T) {
	synth := &fakeSynth{audio: []byte("wav")}
	sink := &fakeSink{delay: 200 * time.Millisecond}
	s := newTestSpeaker(synth, sink)

	s.Speak("First utterance.")
	time.Sleep(50 * time.Millisecond)
	s.Speak("Second utterance.")

	if err := waitDone(t, s); err != nil {
		t.Fatalf("done = %v, want nil", err)
	}
	// Only the second utterance reports.
	select {
	case err := <-s.Done():
		t.Fatalf("got extra done signal %v", err)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestInterruptWhenIdle(t *testing.T) {
	s := newTestSpeaker(&fakeSynth{}, &fakeSink{})
	s.Interrupt()
}

// gatedSynth blocks Synthesize until released, so a test can land an
// interrupt in the window between synthesis and playback.
type gatedSynth struct {
	release chan struct{}
	audio   []byte
}

func (g *gatedSynth) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	<-g.release
	return g.audio, nil
}

func TestInterruptBeforePlaybackStarts(t *testing.T) {
	synth := &gatedSynth{release: make(chan struct{}), audio: []byte("wav")}
	sink := &fakeSink{}
	s := newTestSpeaker(&fakeSynth{}, sink)
	s.tts = synth

	s.Speak("Slow to synthesize.")
	s.Interrupt()
	close(synth.release)

	select {
	case err := <-s.Done():
		t.Fatalf("interrupted utterance reported %v, want silence", err)
	case <-time.After(300 * time.Millisecond):
	}
	if sink.plays.Load() != 0 {
		t.Fatalf("playback started after interrupt (%d plays)", sink.plays.Load())
	}
}
