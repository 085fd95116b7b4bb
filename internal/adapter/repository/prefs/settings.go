// Package prefs implements persistence adapters backed by Fyne preferences.
package prefs

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

const settingsKey = "visualizer.settings"

// SettingsStore implements ports.SettingsStore using Fyne preferences.
// Settings are serialized as a single JSON blob; a corrupt blob falls back
// to defaults instead of failing.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsStore struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSettingsStore creates a new settings store.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewSettingsStore(prefs fyne.Preferences) *SettingsStore {
	return &SettingsStore{
		prefs: prefs,
	}
}

// Load retrieves the saved settings, falling back to defaults for anything
// unset or unreadable.
func (s *SettingsStore) Load() (domain.VisualizerSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.prefs.String(settingsKey)
	if data == "" {
		return domain.DefaultVisualizerSettings(), nil
	}

	settings := domain.DefaultVisualizerSettings()
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return domain.DefaultVisualizerSettings(), nil
	}
	return settings, nil
}

// Save persists the settings.
func (s *SettingsStore) Save(settings domain.VisualizerSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return domain.NewRepositoryError("save", "settings", "failed to marshal settings", err)
	}
	s.prefs.SetString(settingsKey, string(data))
	return nil
}

// Verify interface implementation
var _ ports.SettingsStore = (*SettingsStore)(nil)
