// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/trackdraft/trackdraft/internal/adapter/eventbus"
	"github.com/trackdraft/trackdraft/internal/adapter/playback"
	"github.com/trackdraft/trackdraft/internal/adapter/repository/disk"
	"github.com/trackdraft/trackdraft/internal/adapter/repository/prefs"
	fyneui "github.com/trackdraft/trackdraft/internal/adapter/ui/fyne"
	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/logger"
	"github.com/trackdraft/trackdraft/internal/ports"
	"github.com/trackdraft/trackdraft/internal/service/visualizer"
	"github.com/trackdraft/trackdraft/internal/service/waveform"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus ports.EventBus
	engine   *playback.Engine

	// Repositories
	kvStore       ports.KeyValueStore
	peaksStore    ports.PeaksStore
	settingsStore ports.SettingsStore

	// Services
	cache       *waveform.Cache
	loader      *waveform.Loader
	analyzer    *waveform.Analyzer
	resolver    *waveform.Resolver
	analysisCtx *visualizer.Context
	settings    *visualizer.SettingsManager

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// StorageDir is where durable state (cached peaks) lives. Empty picks a
	// directory under the user config root.
	StorageDir string

	// Profile selects full or constrained rendering defaults
	Profile ProfileChoice

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// ProfileChoice selects the device rendering profile.
type ProfileChoice string

// Supported profile values.
const (
	ProfileAuto        ProfileChoice = "auto"
	ProfileFull        ProfileChoice = "full"
	ProfileConstrained ProfileChoice = "constrained"
)

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:    "com.trackdraft.app",
		Profile:  ProfileAuto,
		LogLevel: loggerCfg.Level,
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: "text",
	})
	app.logger.Info("initializing application", slog.String("app_id", config.AppID))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(
		app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create repositories
	storageDir := config.StorageDir
	if storageDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		storageDir = filepath.Join(base, "trackdraft")
	}
	kvStore, err := disk.NewKeyValueStore(storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	app.kvStore = kvStore
	app.peaksStore = disk.NewPeaksStore(kvStore)
	app.settingsStore = prefs.NewSettingsStore(app.fyneApp.Preferences())

	// Step 5: Create the playback engine
	app.engine = playback.NewEngine(
		app.logger.With(slog.String("component", "playback")),
		app.eventBus,
		http.DefaultClient,
	)

	// Step 6: Create waveform services
	app.cache = waveform.NewCache(
		app.logger.With(slog.String("service", "waveform-cache")),
		app.kvStore,
	)
	app.loader = waveform.NewLoader(
		app.logger.With(slog.String("service", "waveform-loader")),
		app.cache,
		http.DefaultClient,
	)
	app.analyzer = waveform.NewAnalyzer(
		app.logger.With(slog.String("service", "waveform-analyzer")),
		http.DefaultClient,
	)
	app.resolver = waveform.NewResolver(
		app.logger.With(slog.String("service", "waveform-resolver")),
		app.peaksStore,
		app.loader,
		app.analyzer,
		app.eventBus,
		waveform.DefaultResolverConfig(),
	)

	// Step 7: Create the visualizer core
	app.analysisCtx = visualizer.NewContext(
		app.logger.With(slog.String("service", "analysis-context")),
		app.eventBus,
	)
	app.settings = visualizer.NewSettingsManager(
		app.logger.With(slog.String("service", "visualizer-settings")),
		app.eventBus,
		app.settingsStore,
		deviceProfile(config.Profile, app.fyneApp.Driver().Device()),
	)

	// Step 8: Create UI
	app.mainWindow = fyneui.NewMainWindow(
		app.fyneApp,
		app.logger.With(slog.String("component", "ui")),
		app.settings.Current(),
	)

	// Step 9: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.resolver,
		app.engine,
		app.engine,
		app.analysisCtx,
		app.settings,
		app.eventBus,
		app.mainWindow,
	)

	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() {
	a.logger.Info("TrackDraft started")

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
}

// Shutdown gracefully shuts down the application.
// This should be called via deferring in main.go.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Shutdown UI and presenter first so render loops stop pulling samples
	if a.presenter != nil {
		a.presenter.Shutdown()
	}

	// Cancel any in-flight waveform resolution
	if a.resolver != nil {
		a.resolver.Shutdown()
	}

	// Stop playback
	if a.engine != nil {
		if err := a.engine.Stop(); err != nil {
			a.logger.Warn("failed to stop playback", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}

// deviceProfile maps the configuration choice to the domain profile. An
// explicit choice always wins; auto inspects the host device.
func deviceProfile(choice ProfileChoice, device fyne.Device) domain.DeviceProfile {
	switch choice {
	case ProfileConstrained:
		return domain.ProfileConstrained
	case ProfileFull:
		return domain.ProfileFull
	}
	return detectProfile(device.IsMobile(), runtime.NumCPU())
}

// detectProfile is the auto heuristic. Mobile form factors and hosts with
// few cores cannot sustain the full visualizer frame rates.
func detectProfile(mobile bool, cpus int) domain.DeviceProfile {
	if mobile || cpus <= 2 {
		return domain.ProfileConstrained
	}
	return domain.ProfileFull
}
