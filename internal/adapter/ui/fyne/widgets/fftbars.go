package widgets

import (
	"errors"
	"image"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/render"
	"github.com/trackdraft/trackdraft/internal/service/visualizer"
)

// FFTBarsWidget displays live frequency magnitudes as vertical bars with
// falling caps. It owns its analyser tap and render loop, so reconfiguring
// or disabling it never touches the other visualizers.
type FFTBarsWidget struct {
	widget.BaseWidget

	logger   *slog.Logger
	raster   *canvas.Raster
	renderer *render.FFTBars
	sched    render.Scheduler

	mu      sync.Mutex
	context *visualizer.Context
	tap     *visualizer.Analyser
	loop    *render.Loop
	scratch []float64
	latest  []float64
}

// NewFFTBarsWidget creates the widget. The scheduler drives the render loop;
// production code passes render.TickerScheduler.
func NewFFTBarsWidget(logger *slog.Logger, sched render.Scheduler, settings domain.FFTBarsSettings) *FFTBarsWidget {
	v := &FFTBarsWidget{
		logger:   logger,
		renderer: render.NewFFTBars(settings),
		sched:    sched,
	}

	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)

	return v
}

// CreateRenderer implements fyne.Widget.
func (v *FFTBarsWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns a minimal size so the widget expands to fill available space.
func (v *FFTBarsWidget) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// Attach opens an analyser tap on the context and starts the render loop.
// It is a no-op while already attached.
func (v *FFTBarsWidget) Attach(ctx *visualizer.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tap != nil {
		return nil
	}

	tap, err := ctx.NewTap(visualizer.DefaultFFTSize)
	if err != nil {
		return err
	}

	v.context = ctx
	v.tap = tap
	v.loop = render.NewLoop(v.logger, v.sched, v.renderer.Settings().TargetFPS, v.frame)
	v.loop.Start()
	return nil
}

// Detach stops the render loop and closes the tap. The last rendered frame
// stays on screen.
func (v *FFTBarsWidget) Detach() {
	v.mu.Lock()
	loop := v.loop
	ctx := v.context
	tap := v.tap
	v.loop = nil
	v.context = nil
	v.tap = nil
	v.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}
	if ctx != nil && tap != nil {
		ctx.CloseTap(tap)
	}
}

// ApplySettings reconfigures the renderer and restarts the loop when the
// frame rate changed. Disabling is handled by the caller via Detach.
func (v *FFTBarsWidget) ApplySettings(settings domain.FFTBarsSettings) {
	v.mu.Lock()
	prevFPS := v.renderer.Settings().TargetFPS
	v.renderer.Configure(settings)
	running := v.loop != nil
	v.mu.Unlock()

	if running && settings.TargetFPS != prevFPS {
		v.restartLoop(settings.TargetFPS)
	}
	v.raster.Refresh()
}

func (v *FFTBarsWidget) restartLoop(fps int) {
	v.mu.Lock()
	loop := v.loop
	v.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}

	v.mu.Lock()
	if v.tap != nil {
		v.loop = render.NewLoop(v.logger, v.sched, fps, v.frame)
		v.loop.Start()
	}
	v.mu.Unlock()
}

// frame pulls the current frequency magnitudes from the tap and schedules a
// redraw. A closed tap ends the useful life of the frame quietly.
func (v *FFTBarsWidget) frame() error {
	v.mu.Lock()
	tap := v.tap
	scratch := v.scratch
	maxFrequency := v.renderer.Settings().MaxFrequency
	v.mu.Unlock()

	if tap == nil {
		return nil
	}

	mags, err := tap.Frequencies(scratch, maxFrequency)
	if err != nil {
		if errors.Is(err, domain.ErrTapClosed) {
			return nil
		}
		return err
	}

	v.mu.Lock()
	v.scratch = mags
	v.latest = append(v.latest[:0], mags...)
	v.mu.Unlock()

	v.raster.Refresh()
	return nil
}

// draw is the raster generator function.
func (v *FFTBarsWidget) draw(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	v.mu.Lock()
	v.renderer.Draw(img, v.latest)
	v.mu.Unlock()
	return img
}

// Verify interface implementation
var _ fyne.Widget = (*FFTBarsWidget)(nil)
