package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/logger"
)

// synthesizer is the slice of the TTS client the Speaker needs.
// Narrowed for tests.
type synthesizer interface {
	Synthesize(ctx context.Context, voice, text string) ([]byte, error)
}

// audioSink is the slice of the Player the Speaker needs.
type audioSink interface {
	Play(ctx context.Context, wav []byte) error
	Stop()
}

// Speaker voices one utterance at a time. Speak cancels any in-flight
// utterance before starting the new one, and every Speak eventually
// reports through Done — success or failure — so the caller's speaking
// phase always exits.
type Speaker struct {
	tts    synthesizer
	player audioSink
	cache  *Cache
	voice  string
	log    *logger.Logger

	done chan error

	mu     sync.Mutex
	cancel context.CancelFunc // in-flight utterance, nil when idle
	gen    int                // bumped per Speak; stale utterances stay silent
}

// Compile-time interface check.
var _ domain.Speaker = (*Speaker)(nil)

// NewSpeaker creates a Speaker using the given voice.
func NewSpeaker(tts *Client, player *Player, voice string, log *logger.Logger) *Speaker {
	return &Speaker{
		tts:    tts,
		player: player,
		cache:  NewCache(voice, log),
		voice:  voice,
		log:    log,
		done:   make(chan error, 4),
	}
}

// Done delivers one value per Speak call: nil when synthesis and
// playback completed, the failure otherwise. Interrupted utterances do
// not report.
func (s *Speaker) Done() <-chan error { return s.done }

// Speak cancels any in-flight utterance and voices text in the
// background. Non-blocking.
func (s *Speaker) Speak(text string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.player.Stop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	go func() {
		err := s.speak(ctx, text)

		s.mu.Lock()
		current := s.gen == myGen
		if current {
			s.cancel = nil
		}
		s.mu.Unlock()

		// A superseded or interrupted utterance stays silent; the new
		// Speak (or nobody) owns the done channel now.
		if !current || ctx.Err() != nil {
			return
		}

		select {
		case s.done <- err:
		default:
			s.log.Warn("speaker: dropping done signal, channel full")
		}
	}()
}

// Interrupt cancels the active utterance, if any. Safe to call when
// idle.
func (s *Speaker) Interrupt() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.player.Stop()
		s.log.Debug("speaker: interrupted")
	}
}

func (s *Speaker) speak(ctx context.Context, text string) error {
	spoken := Plaintext(text)
	if spoken == "" {
		return nil
	}

	audio, err := s.synthesizeWithCache(ctx, spoken)
	if err != nil {
		s.log.Error("speaker: synthesis failed: %v", err)
		return err
	}

	// An interrupt that landed during synthesis (or a cache hit racing
	// one) must not start playback.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.player.Play(ctx, audio); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("speaker: playback failed: %v", err)
		}
		return err
	}
	return nil
}

// synthesizeWithCache checks the cache first, otherwise synthesizes and
// stores the result.
func (s *Speaker) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := s.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := s.tts.Synthesize(ctx, s.voice, text)
	if err != nil {
		return nil, err
	}
	s.cache.Put(text, audio)
	return audio, nil
}
