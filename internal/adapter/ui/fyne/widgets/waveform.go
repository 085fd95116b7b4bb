// Package widgets provides custom Fyne widgets for the TrackDraft application.
package widgets

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/render"
)

// waveformFPS caps the playhead and buffering-pulse animation.
const waveformFPS = 30

// WaveformWidget displays the amplitude summary of the current track with a
// moving playhead. Tapping it requests a seek to the corresponding position.
//
// The widget owns a render loop that runs only while playback is active
// (playing or buffering); an idle waveform repaints on state changes alone.
type WaveformWidget struct {
	widget.BaseWidget

	raster   *canvas.Raster
	renderer *render.Waveform
	loop     *render.Loop
	now      func() time.Time

	mu          sync.RWMutex
	sequence    domain.AmplitudeSequence
	snapshot    domain.PlaybackSnapshot
	snapAt      time.Time
	placeholder bool

	// onSeek receives the target position when the user taps the widget.
	onSeek func(position time.Duration)
}

// NewWaveformWidget creates a waveform widget. The onSeek callback may be
// nil, in which case taps are ignored.
func NewWaveformWidget(logger *slog.Logger, sched render.Scheduler, onSeek func(position time.Duration)) *WaveformWidget {
	w := &WaveformWidget{
		renderer: render.NewWaveform(render.DefaultWaveformStyle()),
		now:      time.Now,
		onSeek:   onSeek,
	}

	w.raster = canvas.NewRaster(w.draw)
	w.loop = render.NewLoop(logger, sched, waveformFPS, w.frame)
	w.ExtendBaseWidget(w)

	return w
}

// CreateRenderer implements fyne.Widget.
func (w *WaveformWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.raster)
}

// MinSize keeps the widget small enough to shrink with the window while it
// still expands to fill available space.
func (w *WaveformWidget) MinSize() fyne.Size {
	return fyne.NewSize(200, 64)
}

// SetSequence replaces the displayed amplitude sequence.
func (w *WaveformWidget) SetSequence(seq domain.AmplitudeSequence, placeholder bool) {
	w.mu.Lock()
	w.sequence = seq
	w.placeholder = placeholder
	w.mu.Unlock()

	w.raster.Refresh()
}

// SetPlayback updates the playhead state, starting the animation loop when
// the snapshot is active and stopping it once it goes idle.
func (w *WaveformWidget) SetPlayback(snapshot domain.PlaybackSnapshot) {
	w.mu.Lock()
	w.snapshot = snapshot
	w.snapAt = w.now()
	w.mu.Unlock()

	if snapshot.Active() {
		w.loop.Start()
	} else {
		w.loop.Stop()
	}
	w.raster.Refresh()
}

// Tapped implements the fyne.Tappable interface. The tap's X coordinate is
// mapped linearly onto the track duration.
func (w *WaveformWidget) Tapped(event *fyne.PointEvent) {
	if w.onSeek == nil {
		return
	}

	w.mu.RLock()
	duration := w.snapshot.Duration
	w.mu.RUnlock()

	position, ok := render.SeekPosition(float64(event.Position.X), float64(w.Size().Width), duration)
	if !ok {
		return
	}
	w.onSeek(position)
}

func (w *WaveformWidget) frame() error {
	w.raster.Refresh()
	return nil
}

// displaySnapshot extrapolates the playhead between engine updates so the
// marker moves at frame rate rather than at the progress poll cadence.
func (w *WaveformWidget) displaySnapshot() (domain.AmplitudeSequence, domain.PlaybackSnapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := w.snapshot
	if snap.Playing {
		snap.Position += w.now().Sub(w.snapAt)
		if snap.Duration > 0 && snap.Position > snap.Duration {
			snap.Position = snap.Duration
		}
	}
	return w.sequence, snap, w.placeholder
}

// draw is the raster generator function.
func (w *WaveformWidget) draw(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	seq, snapshot, placeholder := w.displaySnapshot()
	w.renderer.Draw(img, seq, snapshot, placeholder)
	return img
}

// Verify interface implementations
var (
	_ fyne.Widget   = (*WaveformWidget)(nil)
	_ fyne.Tappable = (*WaveformWidget)(nil)
)
