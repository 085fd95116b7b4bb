package waveform

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// Cache is the two-tier amplitude-sequence cache: a process-local memory map
// in front of a persistent key-value store. It is constructed once per
// session and passed by reference to the loader and resolver; tests inject a
// fake store instead of touching ambient global state.
//
// Invariants:
//   - the memory tier is a superset of every persistent entry read so far
//     (reads promote into memory);
//   - entries never expire within a session;
//   - writes are idempotent, so concurrent writers never conflict;
//   - persistent-tier writes are best-effort: failures are logged and
//     swallowed, never surfaced to the display path.
type Cache struct {
	logger  *slog.Logger
	persist ports.KeyValueStore

	mu  sync.RWMutex
	mem map[string]domain.AmplitudeSequence
}

// NewCache creates a cache over the given persistent store.
func NewCache(logger *slog.Logger, persist ports.KeyValueStore) *Cache {
	return &Cache{
		logger:  logger,
		persist: persist,
		mem:     make(map[string]domain.AmplitudeSequence),
	}
}

// Get returns the cached sequence for a key. It checks the memory tier
// first, then the persistent tier; a persistent hit is validated, promoted
// into memory and returned. Malformed persistent entries are evicted and
// treated as absent.
func (c *Cache) Get(key string) (domain.AmplitudeSequence, bool) {
	c.mu.RLock()
	seq, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return seq.Clone(), true
	}

	raw, ok := c.persist.Get(key)
	if !ok {
		return nil, false
	}

	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		c.logger.Warn("evicting unreadable cached waveform",
			slog.String("key", key), slog.Any("error", err))
		c.persist.Delete(key)
		return nil, false
	}
	if err := validatePeaks(values); err != nil {
		c.logger.Warn("evicting malformed cached waveform",
			slog.String("key", key), slog.Int("length", len(values)))
		c.persist.Delete(key)
		return nil, false
	}

	seq = normalizePeaks(values)
	c.mu.Lock()
	c.mem[key] = seq
	c.mu.Unlock()

	return seq.Clone(), true
}

// Put stores a sequence in both tiers. The memory write always succeeds;
// the persistent write is best-effort and a failure (quota, serialization)
// only produces a log line.
func (c *Cache) Put(key string, seq domain.AmplitudeSequence) {
	stored := seq.Clone()

	c.mu.Lock()
	c.mem[key] = stored
	c.mu.Unlock()

	raw, err := json.Marshal([]float64(stored))
	if err != nil {
		c.logger.Warn("cannot serialize waveform for persistent cache",
			slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.persist.Set(key, raw); err != nil {
		c.logger.Warn("persistent waveform cache write failed",
			slog.String("key", key), slog.Any("error", err))
	}
}
