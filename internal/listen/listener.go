// Package listen provides single-utterance voice capture backed by a
// local Whisper model. One Start call produces at most one transcript.
package listen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/logger"
)

// Recognition error codes surfaced to the user. These mirror the codes
// the capture layer can actually distinguish.
const (
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
)

// Option configures the Listener.
type Option func(*Listener)

// WithChunkDuration sets how long each recording chunk lasts.
func WithChunkDuration(d time.Duration) Option {
	return func(l *Listener) { l.chunkDuration = d }
}

// WithMaxWindow sets the maximum length of one capture pass.
func WithMaxWindow(d time.Duration) Option {
	return func(l *Listener) { l.maxWindow = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) Option {
	return func(l *Listener) { l.tempDir = dir }
}

// Listener records microphone audio in short chunks, transcribes each
// chunk with whisper-cli, and emits one combined transcript per capture
// pass. Capture ends on silence, on the max window, or on Stop.
type Listener struct {
	whisperBin    string
	modelPath     string
	tempDir       string
	log           *logger.Logger
	chunkDuration time.Duration
	maxWindow     time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc // active capture pass, nil when idle
	results chan domain.ListenResult
}

// Compile-time interface check.
var _ domain.Listener = (*Listener)(nil)

// Probe reports whether the capture capability is usable: the whisper
// binary must be on PATH and the model file must exist. Returns
// domain.ErrSpeechUnavailable (wrapped) when it isn't.
func Probe(whisperBin, modelPath string) error {
	if _, err := exec.LookPath(whisperBin); err != nil {
		return fmt.Errorf("%w: whisper binary %q not found: %v", domain.ErrSpeechUnavailable, whisperBin, err)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("%w: model file %q: %v", domain.ErrSpeechUnavailable, modelPath, err)
	}
	return nil
}

// New creates a Listener. Call Probe first to verify the capability is
// present.
func New(whisperBin, modelPath string, log *logger.Logger, opts ...Option) *Listener {
	l := &Listener{
		whisperBin:    whisperBin,
		modelPath:     modelPath,
		tempDir:       ".parley-stt",
		log:           log,
		chunkDuration: 2 * time.Second,
		maxWindow:     12 * time.Second,
		results:       make(chan domain.ListenResult, 4),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Results delivers one ListenResult per capture pass.
func (l *Listener) Results() <-chan domain.ListenResult {
	return l.results
}

// Start begins a capture pass in a background goroutine. A no-op if a
// pass is already running.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		l.log.Debug("listen: start ignored, capture already running")
		return
	}
	captureCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	if err := os.MkdirAll(l.tempDir, 0o755); err != nil {
		l.log.Error("listen: temp dir %s: %v", l.tempDir, err)
		l.finish(domain.ListenResult{Code: CodeAudioCapture})
		return
	}
	go l.capture(captureCtx)
}

// Stop ends the current capture pass early. Safe to call when idle.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (l *Listener) finish(res domain.ListenResult) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	select {
	case l.results <- res:
	default:
		l.log.Warn("listen: dropping result, channel full")
	}
}

// capture runs one pass: record chunks until silence or the window
// closes, then emit the combined transcript.
func (l *Listener) capture(ctx context.Context) {
	l.log.Info("listen: capture started (chunk=%s, window=%s)", l.chunkDuration, l.maxWindow)

	deadline := time.After(l.maxWindow)
	var parts []string
	emptyRuns := 0
	heardSpeech := false
	// Allow more leading silence before the user starts talking; once
	// they have, a shorter gap means they're done.
	const graceEmpty = 3
	const postSpeechEmpty = 1

	for {
		select {
		case <-ctx.Done():
			// Manual stop. Emit whatever was heard; an empty result is
			// ignored by the caller.
			l.finish(domain.ListenResult{Text: strings.Join(parts, " ")})
			return
		case <-deadline:
			l.log.Debug("listen: max window reached")
			l.emitCombined(parts, heardSpeech)
			return
		default:
		}

		chunk, err := l.recordChunk(ctx, l.chunkDuration)
		if err != nil {
			l.log.Error("listen: chunk failed: %v", err)
			l.finish(domain.ListenResult{Code: CodeAudioCapture})
			return
		}

		chunk = Scrub(chunk)
		if chunk == "" {
			emptyRuns++
			maxEmpty := graceEmpty
			if heardSpeech {
				maxEmpty = postSpeechEmpty
			}
			if emptyRuns >= maxEmpty {
				l.log.Debug("listen: silence, ending capture (heard=%v)", heardSpeech)
				l.emitCombined(parts, heardSpeech)
				return
			}
			continue
		}

		emptyRuns = 0
		heardSpeech = true
		l.log.Debug("listen: chunk %q", chunk)
		parts = append(parts, chunk)
	}
}

func (l *Listener) emitCombined(parts []string, heardSpeech bool) {
	combined := strings.TrimSpace(strings.Join(parts, " "))
	if combined == "" || !heardSpeech {
		l.log.Info("listen: nothing heard")
		l.finish(domain.ListenResult{Code: CodeNoSpeech})
		return
	}
	l.log.Info("listen: transcript %q", combined)
	l.finish(domain.ListenResult{Text: combined})
}

// recordChunk records and transcribes a single chunk.
func (l *Listener) recordChunk(ctx context.Context, duration time.Duration) (string, error) {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := l.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		l.whisperBin,
		l.modelPath,
		l.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		return "", fmt.Errorf("transcriber init: %w", err)
	}

	if err := t.Start(); err != nil {
		return "", fmt.Errorf("recording start: %w", err)
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}

	t.Stop()
	wg.Wait()

	return result, nil
}
