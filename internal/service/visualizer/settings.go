package visualizer

import (
	"log/slog"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// SettingsManager owns the visualizer configuration: it loads the persisted
// settings at startup, adapts them to the device profile, and broadcasts
// changes so each visualizer reconfigures independently.
//
// Thread-safety: all methods may be called from any goroutine.
type SettingsManager struct {
	logger  *slog.Logger
	bus     ports.EventBus
	store   ports.SettingsStore
	profile domain.DeviceProfile

	mu      sync.RWMutex
	current domain.VisualizerSettings
}

// NewSettingsManager loads persisted settings and adapts them to the
// profile. A store load failure falls back to defaults with a warning.
func NewSettingsManager(logger *slog.Logger, bus ports.EventBus, store ports.SettingsStore, profile domain.DeviceProfile) *SettingsManager {
	settings, err := store.Load()
	if err != nil {
		logger.Warn("failed to load visualizer settings, using defaults", slog.Any("error", err))
		settings = domain.DefaultVisualizerSettings()
	}

	return &SettingsManager{
		logger:  logger,
		bus:     bus,
		store:   store,
		profile: profile,
		current: settings.ForProfile(profile),
	}
}

// Current returns the active settings.
func (m *SettingsManager) Current() domain.VisualizerSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update replaces the settings, persists them and publishes a
// SettingsChangedEvent. The device profile is re-applied so a constrained
// host cannot be configured past its limits.
func (m *SettingsManager) Update(settings domain.VisualizerSettings) error {
	adapted := settings.ForProfile(m.profile)

	m.mu.Lock()
	m.current = adapted
	m.mu.Unlock()

	// Persist the user's values, not the profile-adapted ones, so a session
	// on a capable device gets the full configuration back.
	if err := m.store.Save(settings); err != nil {
		m.logger.Warn("failed to persist visualizer settings", slog.Any("error", err))
	}

	m.bus.Publish(domain.NewSettingsChangedEvent(adapted))
	return nil
}
