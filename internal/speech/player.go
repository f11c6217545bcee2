package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/softspoken/parley/internal/logger"
)

// Player plays WAV/PCM audio through the system device via oto.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer initializes the system audio context. Returns an error if
// the audio device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("player: initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play plays WAV audio synchronously: it blocks until playback
// finishes, ctx is cancelled, or Stop is called. A ctx that is already
// cancelled means nothing is played at all, so an utterance interrupted
// between synthesis and playback stays silent.
func (p *Player) Play(ctx context.Context, wavData []byte) error {
	pcm, err := pcmFromWAV(wavData)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("player: playing %d bytes of PCM", len(pcm))

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	var cancelled error
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			cancelled = ctx.Err()
		case <-tick.C:
		}
		if cancelled != nil {
			break
		}
	}

	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()

	closeErr := player.Close()
	if cancelled != nil {
		return cancelled
	}
	return closeErr
}

// Stop interrupts the currently playing audio, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("player: interrupted")
	}
}

// pcmFromWAV returns the raw PCM payload of a RIFF/WAVE buffer.
func pcmFromWAV(wav []byte) ([]byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	rest := wav[12:]
	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		body := rest[8:]

		if id == "data" {
			if size > len(body) {
				size = len(body)
			}
			return body[:size], nil
		}

		// Chunks are word-aligned.
		if size%2 != 0 {
			size++
		}
		if size > len(body) {
			break
		}
		rest = body[size:]
	}

	return nil, errors.New("data chunk not found in WAV")
}
