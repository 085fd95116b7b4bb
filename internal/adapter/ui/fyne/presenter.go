// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
	"github.com/trackdraft/trackdraft/internal/service/visualizer"
	"github.com/trackdraft/trackdraft/internal/service/waveform"
)

// progressInterval is how often the presenter polls playback position.
const progressInterval = 250 * time.Millisecond

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
type UIView interface {
	// Track information updates
	SetTrackInfo(title, artist string)

	// Waveform display updates
	SetWaveform(seq domain.AmplitudeSequence, placeholder bool)
	SetPlayback(snapshot domain.PlaybackSnapshot)
	SetPlayState(playing bool)

	// Visualizer suite lifecycle
	AttachVisualizers(ctx *visualizer.Context)
	DetachVisualizers()
	ApplyVisualizerSettings(settings domain.VisualizerSettings)

	// Notices are subtle and dismissible; they never block interaction.
	ShowNotice(message string)
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between the waveform resolver, the playback engine, the
// visualizer analysis context and the UI.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to service method calls
// - Maintain presentation state
//
// Thread-safety: All operations are thread-safe via sync.RWMutex.
type Presenter struct {
	logger *slog.Logger

	// Services (injected)
	resolver    *waveform.Resolver
	player      ports.AudioPlayer
	source      ports.SampleSource
	analysisCtx *visualizer.Context
	settings    *visualizer.SettingsManager

	// Event bus for subscriptions
	EventBus ports.EventBus

	// UI view
	view UIView

	// Presentation state
	currentTrack     *domain.Track
	isPlaying        bool
	contextActive    bool
	progressTicker   *time.Ticker
	stopProgressChan chan struct{}

	// Concurrency control
	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter.
func NewPresenter(
	logger *slog.Logger,
	resolver *waveform.Resolver,
	player ports.AudioPlayer,
	source ports.SampleSource,
	analysisCtx *visualizer.Context,
	settings *visualizer.SettingsManager,
	eventBus ports.EventBus,
	view UIView,
) *Presenter {
	p := &Presenter{
		logger:           logger,
		resolver:         resolver,
		player:           player,
		source:           source,
		analysisCtx:      analysisCtx,
		settings:         settings,
		EventBus:         eventBus,
		view:             view,
		stopProgressChan: make(chan struct{}),
	}

	// Subscribe to events
	p.subscribeToEvents()

	// Sync UI with current state
	p.view.ApplyVisualizerSettings(settings.Current())

	// Start progress ticker
	p.startProgressUpdates()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Track and waveform events
		domain.EventTrackSelected:    p.onTrackSelected,
		domain.EventWaveformResolved: p.onWaveformResolved,
		domain.EventWaveformFallback: p.onWaveformFallback,

		// Visualizer events
		domain.EventAnalysisContextFailed: p.onAnalysisContextFailed,
		domain.EventSettingsChanged:       p.onSettingsChanged,

		// Playback events
		domain.EventPlaybackState: p.onPlaybackState,
	}

	for eventType, handler := range subscriptions {
		p.EventBus.Subscribe(eventType, handler)
	}
}

// Event handlers

func (p *Presenter) onTrackSelected(event domain.Event) {
	e, ok := event.(domain.TrackSelectedEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.currentTrack = &e.Track
	p.mu.Unlock()

	p.view.SetTrackInfo(e.Track.Title, e.Track.Artist)
}

func (p *Presenter) onWaveformResolved(event domain.Event) {
	if _, ok := event.(domain.WaveformResolvedEvent); !ok {
		return
	}

	// Pull the full view rather than carrying the sequence in the event; the
	// resolver guarantees the snapshot matches the latest selected track.
	view := p.resolver.Snapshot()
	p.view.SetWaveform(view.Sequence, view.IsPlaceholder)
}

func (p *Presenter) onWaveformFallback(event domain.Event) {
	e, ok := event.(domain.WaveformFallbackEvent)
	if !ok {
		return
	}

	view := p.resolver.Snapshot()
	p.view.SetWaveform(view.Sequence, view.IsPlaceholder)
	p.view.ShowNotice(e.Reason)
}

func (p *Presenter) onAnalysisContextFailed(event domain.Event) {
	e, ok := event.(domain.AnalysisContextFailedEvent)
	if !ok {
		return
	}

	p.logger.Warn("analysis context failed", slog.Any("error", e.Err))

	p.mu.Lock()
	p.contextActive = false
	p.mu.Unlock()

	p.view.DetachVisualizers()
	p.view.ShowNotice("live visualizers are unavailable for this track")
}

func (p *Presenter) onSettingsChanged(event domain.Event) {
	e, ok := event.(domain.SettingsChangedEvent)
	if !ok {
		return
	}

	p.view.ApplyVisualizerSettings(e.Settings)
}

func (p *Presenter) onPlaybackState(event domain.Event) {
	e, ok := event.(domain.PlaybackStateEvent)
	if !ok {
		return
	}

	p.mu.Lock()
	p.isPlaying = e.Snapshot.Playing
	p.mu.Unlock()

	p.view.SetPlayState(e.Snapshot.Playing)
	p.view.SetPlayback(e.Snapshot)
}

func (p *Presenter) startProgressUpdates() {
	p.progressTicker = time.NewTicker(progressInterval)

	go func() {
		for {
			select {
			case <-p.progressTicker.C:
				p.updateProgress()
			case <-p.stopProgressChan:
				return
			}
		}
	}()
}

func (p *Presenter) updateProgress() {
	p.mu.RLock()
	currentTrack := p.currentTrack
	p.mu.RUnlock()

	// Only update if a track is loaded
	if currentTrack == nil {
		return
	}

	// Idle playback needs no periodic repaints; pause, stop and seek push
	// their own snapshots through the event bus.
	snapshot := p.player.Snapshot()
	if !snapshot.Active() {
		return
	}

	p.view.SetPlayback(snapshot)
	p.EventBus.Publish(domain.NewPlaybackProgressEvent(snapshot))
}

// UI Command handlers (called by UI)

// OnTrackChosen handles a track selection. The waveform resolves through its
// tiers while the audio loads in the background.
func (p *Presenter) OnTrackChosen(track domain.Track) {
	p.resolver.SetTrack(track)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := p.player.Load(ctx, track); err != nil {
			p.logger.Error("track load failed",
				slog.String("track_id", track.ID),
				slog.Any("error", err))
			p.view.ShowNotice(fmt.Sprintf("cannot load audio: %v", err))
		}
	}()
}

// OnPlayClicked handles the play/pause button click. The first successful
// play activates the live analysis context. Pausing suspends the visualizer
// render loops; resuming reattaches them.
func (p *Presenter) OnPlayClicked() {
	p.mu.RLock()
	playing := p.isPlaying
	p.mu.RUnlock()

	if playing {
		if err := p.player.Pause(); err != nil {
			p.logger.Error("pause failed", slog.Any("error", err))
			return
		}
		p.view.DetachVisualizers()
		return
	}

	if err := p.player.Play(); err != nil {
		p.logger.Error("play failed", slog.Any("error", err))
		p.view.ShowNotice(fmt.Sprintf("playback failed: %v", err))
		return
	}

	p.activateAnalysis()
}

// OnStopClicked handles the stop button click. Stopping cancels the
// visualizer render loops along with playback.
func (p *Presenter) OnStopClicked() {
	if err := p.player.Stop(); err != nil {
		p.logger.Error("stop failed", slog.Any("error", err))
	}
	p.view.DetachVisualizers()
	p.view.SetPlayState(false)
	p.view.SetPlayback(domain.PlaybackSnapshot{})
}

// OnSeekRequested handles seek requests from the waveform display.
func (p *Presenter) OnSeekRequested(position time.Duration) {
	if err := p.player.Seek(position); err != nil {
		p.logger.Error("seek failed",
			slog.Duration("position", position),
			slog.Any("error", err))
	}
}

// OnSettingsApplied handles the settings dialog's apply action.
func (p *Presenter) OnSettingsApplied(settings domain.VisualizerSettings) {
	if err := p.settings.Update(settings); err != nil {
		p.logger.Error("settings update failed", slog.Any("error", err))
	}
}

// CurrentSettings returns the active visualizer settings for the dialog.
func (p *Presenter) CurrentSettings() domain.VisualizerSettings {
	return p.settings.Current()
}

// activateAnalysis builds the live analysis graph once and (re)attaches the
// visualizers to it. Activation failure is terminal for the session and is
// surfaced through the event bus.
func (p *Presenter) activateAnalysis() {
	p.mu.Lock()
	active := p.contextActive
	p.mu.Unlock()

	if !active {
		if err := p.analysisCtx.Activate(p.source); err != nil {
			// The context publishes the failure event; nothing more to do here.
			return
		}
		p.mu.Lock()
		p.contextActive = true
		p.mu.Unlock()
	}

	p.view.AttachVisualizers(p.analysisCtx)
}

// Shutdown cleans up resources.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		// Stop the ticker first to prevent new iterations
		if p.progressTicker != nil {
			p.progressTicker.Stop()
		}

		// Close channel to signal goroutine to exit
		close(p.stopProgressChan)

		// An idle snapshot halts the waveform animation loop.
		p.view.SetPlayback(domain.PlaybackSnapshot{})
		p.view.DetachVisualizers()
		p.analysisCtx.Release()
	})
}
