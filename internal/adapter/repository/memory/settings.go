package memory

import (
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// SettingsStore is an in-memory ports.SettingsStore, used in tests and when
// no preferences backend is available.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.VisualizerSettings
	saved    bool
}

// NewSettingsStore creates an empty in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Load retrieves the saved settings, falling back to defaults when nothing
// has been saved.
func (s *SettingsStore) Load() (domain.VisualizerSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return domain.DefaultVisualizerSettings(), nil
	}
	return s.settings, nil
}

// Save persists the settings.
func (s *SettingsStore) Save(settings domain.VisualizerSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.saved = true
	return nil
}

// Verify interface implementation
var _ ports.SettingsStore = (*SettingsStore)(nil)
