package fyne

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/trackdraft/trackdraft/internal/adapter/ui/fyne/widgets"
	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/render"
	"github.com/trackdraft/trackdraft/internal/service/visualizer"
)

// Window defaults.
const (
	appName = "TrackDraft"
	width   = 960
	height  = 640
)

// MainWindow is the main UI window implementing the UIView interface.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// UI components
	waveform     *widgets.WaveformWidget
	fftBars      *widgets.FFTBarsWidget
	oscilloscope *widgets.OscilloscopeWidget
	spectrogram  *widgets.SpectrogramWidget

	playButton  *widget.Button
	stopButton  *widget.Button
	trackInfo   *widget.Label
	currentTime *widget.Label
	endTime     *widget.Label

	noticeLabel *widget.Label
	noticeBar   *fyneapp.Container

	// State
	mu                 sync.Mutex
	analysisCtx        *visualizer.Context
	visualizerSettings domain.VisualizerSettings

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window. The widget set is built
// immediately; the presenter is connected afterwards via SetPresenter.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, settings domain.VisualizerSettings) *MainWindow {
	w := &MainWindow{
		app:                app,
		logger:             logger,
		visualizerSettings: settings,
	}

	w.window = app.NewWindow(appName)

	w.buildUI(settings)

	w.window.Resize(fyneapp.Size{
		Width:  width,
		Height: height,
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
}

// ShowAndRun shows the window and runs the Fyne event loop.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. Safe to call multiple times.
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI(settings domain.VisualizerSettings) {
	logger := w.logger
	sched := render.TickerScheduler{}

	w.waveform = widgets.NewWaveformWidget(logger, sched, func(position time.Duration) {
		if w.presenter != nil {
			w.presenter.OnSeekRequested(position)
		}
	})
	w.fftBars = widgets.NewFFTBarsWidget(logger, sched, settings.FFTBars)
	w.oscilloscope = widgets.NewOscilloscopeWidget(logger, sched, settings.Oscilloscope)
	w.spectrogram = widgets.NewSpectrogramWidget(logger, sched, settings.Spectrogram)

	// Control buttons
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)

	// Track info label
	w.trackInfo = widget.NewLabel("")
	w.trackInfo.Truncation = fyneapp.TextTruncateClip
	w.trackInfo.TextStyle = fyneapp.TextStyle{Bold: true}

	w.currentTime = widget.NewLabel("00:00")
	w.endTime = widget.NewLabel("00:00")

	// Notice bar, hidden until the first notice arrives
	w.noticeLabel = widget.NewLabel("")
	w.noticeLabel.Truncation = fyneapp.TextTruncateClip
	dismiss := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		w.noticeBar.Hide()
	})
	w.noticeBar = container.NewBorder(nil, nil, nil, dismiss, w.noticeLabel)
	w.noticeBar.Hide()

	buttonsHBox := container.NewHBox(w.playButton, w.stopButton)
	controls := container.NewBorder(nil, nil, buttonsHBox, w.endTime,
		container.NewBorder(nil, nil, w.currentTime, nil, w.trackInfo))

	visualizers := container.NewGridWithColumns(3, w.fftBars, w.oscilloscope, w.spectrogram)

	top := container.NewVBox(w.noticeBar, controls)
	split := container.NewVSplit(w.waveform, visualizers)
	split.SetOffset(0.45)

	w.window.SetContent(container.NewPadded(container.NewBorder(top, nil, nil, nil, split)))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = func() {
		w.presenter.OnPlayClicked()
	}

	w.stopButton.OnTapped = func() {
		w.presenter.OnStopClicked()
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open", func() {
		w.handleOpenFile()
	})

	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})

	settingsItem := fyneapp.NewMenuItem("Visualizers", func() {
		w.handleSettings()
	})

	fileMenu := fyneapp.NewMenu("File", openFile, fyneapp.NewMenuItemSeparator(), exitMenu)
	viewMenu := fyneapp.NewMenu("View", settingsItem)

	return []*fyneapp.Menu{fileMenu, viewMenu}
}

// handleOpenFile handles the "Open" menu action. The chosen file becomes the
// displayed track.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}

	fileDialog := dialog.NewFileOpen(func(reader fyneapp.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		w.presenter.OnTrackChosen(domain.Track{
			ID:       path,
			Title:    name,
			AudioURL: path,
		})
	}, w.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".mp3", ".wav", ".flac", ".ogg"}))
	fileDialog.Show()
}

// handleSettings opens the visualizer settings dialog.
func (w *MainWindow) handleSettings() {
	if w.presenter == nil {
		return
	}

	ShowSettingsDialog(w.window, w.presenter.CurrentSettings(), func(settings domain.VisualizerSettings) {
		w.presenter.OnSettingsApplied(settings)
	})
}

// UIView implementation

// SetTrackInfo updates the track label.
func (w *MainWindow) SetTrackInfo(title, artist string) {
	text := title
	if artist != "" {
		text = fmt.Sprintf("%s - %s", artist, title)
	}
	fyneapp.Do(func() {
		w.trackInfo.SetText(text)
	})
}

// SetWaveform replaces the displayed amplitude sequence.
func (w *MainWindow) SetWaveform(seq domain.AmplitudeSequence, placeholder bool) {
	w.waveform.SetSequence(seq, placeholder)
}

// SetPlayback updates the playhead and the time labels.
func (w *MainWindow) SetPlayback(snapshot domain.PlaybackSnapshot) {
	w.waveform.SetPlayback(snapshot)
	fyneapp.Do(func() {
		w.currentTime.SetText(formatTime(snapshot.Position))
		w.endTime.SetText(formatTime(snapshot.Duration))
	})
}

// SetPlayState switches the play button icon.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// AttachVisualizers binds every enabled visualizer to the analysis context.
func (w *MainWindow) AttachVisualizers(ctx *visualizer.Context) {
	w.mu.Lock()
	w.analysisCtx = ctx
	settings := w.visualizerSettings
	w.mu.Unlock()

	if settings.FFTBars.Enabled {
		_ = w.fftBars.Attach(ctx)
	}
	if settings.Oscilloscope.Enabled {
		_ = w.oscilloscope.Attach(ctx)
	}
	if settings.Spectrogram.Enabled {
		_ = w.spectrogram.Attach(ctx)
	}
}

// DetachVisualizers stops all visualizer loops and closes their taps.
func (w *MainWindow) DetachVisualizers() {
	w.mu.Lock()
	w.analysisCtx = nil
	w.mu.Unlock()

	w.fftBars.Detach()
	w.oscilloscope.Detach()
	w.spectrogram.Detach()
}

// ApplyVisualizerSettings reconfigures each visualizer independently. A
// freshly disabled visualizer detaches; a freshly enabled one attaches when
// the analysis context is live.
func (w *MainWindow) ApplyVisualizerSettings(settings domain.VisualizerSettings) {
	w.mu.Lock()
	w.visualizerSettings = settings
	ctx := w.analysisCtx
	w.mu.Unlock()

	w.fftBars.ApplySettings(settings.FFTBars)
	w.oscilloscope.ApplySettings(settings.Oscilloscope)
	w.spectrogram.ApplySettings(settings.Spectrogram)

	if settings.FFTBars.Enabled && ctx != nil {
		_ = w.fftBars.Attach(ctx)
	} else if !settings.FFTBars.Enabled {
		w.fftBars.Detach()
	}
	if settings.Oscilloscope.Enabled && ctx != nil {
		_ = w.oscilloscope.Attach(ctx)
	} else if !settings.Oscilloscope.Enabled {
		w.oscilloscope.Detach()
	}
	if settings.Spectrogram.Enabled && ctx != nil {
		_ = w.spectrogram.Attach(ctx)
	} else if !settings.Spectrogram.Enabled {
		w.spectrogram.Detach()
	}
}

// ShowNotice displays a dismissible notice without blocking interaction.
func (w *MainWindow) ShowNotice(message string) {
	fyneapp.Do(func() {
		w.noticeLabel.SetText(message)
		w.noticeBar.Show()
	})
}

// formatTime renders a duration as mm:ss.
func formatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Verify interface implementation
var _ UIView = (*MainWindow)(nil)
