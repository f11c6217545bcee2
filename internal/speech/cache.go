package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/softspoken/parley/internal/logger"
)

// Cache is a thread-safe in-memory cache of synthesized audio. The key
// is sha256(voice + ":" + text), so a voice change automatically misses
// until the voice is switched back.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte // key -> WAV bytes
	voice   string
	log     *logger.Logger
	hits    int64
	misses  int64
}

// NewCache creates a cache bound to the given voice name.
func NewCache(voice string, log *logger.Logger) *Cache {
	return &Cache{
		entries: make(map[string][]byte),
		voice:   voice,
		log:     log,
	}
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached audio for text, if present.
func (c *Cache) Get(text string) ([]byte, bool) {
	k := c.key(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	audio, ok := c.entries[k]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return audio, ok
}

// Has reports whether audio for text is cached.
func (c *Cache) Has(text string) bool {
	k := c.key(text)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[k]
	return ok
}

// Put stores audio for text.
func (c *Cache) Put(text string, audio []byte) {
	k := c.key(text)
	c.mu.Lock()
	c.entries[k] = audio
	c.mu.Unlock()
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
