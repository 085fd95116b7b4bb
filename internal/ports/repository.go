// Package ports defines repository interfaces for persistence abstraction.
package ports

import (
	"github.com/trackdraft/trackdraft/internal/domain"
)

// KeyValueStore is a small persistent key-value surface, the durable tier of
// the waveform cache. Values are opaque byte payloads (JSON-serialized
// numeric arrays); a corrupt entry is detected by the cache's validator and
// evicted via Delete rather than causing a crash.
//
// Thread-safety: implementations must be thread-safe.
type KeyValueStore interface {
	// Get retrieves the value for a key. The second return is false when the
	// key is absent.
	Get(key string) ([]byte, bool)

	// Set stores a value. Writes are best-effort from the cache's point of
	// view: the caller logs and swallows errors (quota, serialization).
	Set(key string, value []byte) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)
}

// SettingsStore persists visualizer settings across sessions.
//
// Thread-safety: implementations must be thread-safe.
type SettingsStore interface {
	// Load retrieves the saved settings, falling back to
	// domain.DefaultVisualizerSettings for anything unset.
	Load() (domain.VisualizerSettings, error)

	// Save persists the settings.
	Save(settings domain.VisualizerSettings) error
}
