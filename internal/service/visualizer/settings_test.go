package visualizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdraft/trackdraft/internal/adapter/eventbus"
	"github.com/trackdraft/trackdraft/internal/adapter/repository/memory"
	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/logger"
)

type failingSettingsStore struct {
	loadErr error
	saveErr error
	saved   []domain.VisualizerSettings
}

func (s *failingSettingsStore) Load() (domain.VisualizerSettings, error) {
	return domain.VisualizerSettings{}, s.loadErr
}

func (s *failingSettingsStore) Save(settings domain.VisualizerSettings) error {
	s.saved = append(s.saved, settings)
	return s.saveErr
}

func TestSettingsManager_LoadsPersistedSettings(t *testing.T) {
	store := memory.NewSettingsStore()
	saved := domain.DefaultVisualizerSettings()
	saved.FFTBars.BarCount = 32
	require.NoError(t, store.Save(saved))

	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	m := NewSettingsManager(logger.NewTestLogger(), bus, store, domain.ProfileFull)

	assert.Equal(t, 32, m.Current().FFTBars.BarCount)
}

func TestSettingsManager_LoadFailureFallsBackToDefaults(t *testing.T) {
	store := &failingSettingsStore{loadErr: errors.New("store unavailable")}
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())

	m := NewSettingsManager(logger.NewTestLogger(), bus, store, domain.ProfileFull)
	assert.Equal(t, domain.DefaultVisualizerSettings(), m.Current())
}

func TestSettingsManager_UpdatePublishesAdaptedSettings(t *testing.T) {
	store := memory.NewSettingsStore()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())

	var events []domain.SettingsChangedEvent
	bus.Subscribe(domain.EventSettingsChanged, func(e domain.Event) {
		events = append(events, e.(domain.SettingsChangedEvent))
	})

	m := NewSettingsManager(logger.NewTestLogger(), bus, store, domain.ProfileConstrained)

	settings := domain.DefaultVisualizerSettings()
	settings.FFTBars.BarCount = 128
	require.NoError(t, m.Update(settings))

	// Active and published settings respect the profile cap.
	assert.Equal(t, 64, m.Current().FFTBars.BarCount)
	require.Len(t, events, 1)
	assert.Equal(t, 64, events[0].Settings.FFTBars.BarCount)

	// The store keeps the full values for capable sessions later.
	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 128, persisted.FFTBars.BarCount)
}

func TestSettingsManager_UpdateSurvivesSaveFailure(t *testing.T) {
	store := &failingSettingsStore{saveErr: errors.New("disk full")}
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())

	var published int
	bus.Subscribe(domain.EventSettingsChanged, func(domain.Event) { published++ })

	m := NewSettingsManager(logger.NewTestLogger(), bus, store, domain.ProfileFull)
	require.NoError(t, m.Update(domain.DefaultVisualizerSettings()))
	assert.Equal(t, 1, published)
}
