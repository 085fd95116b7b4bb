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

// OscilloscopeWidget traces the live time-domain signal. Like the other
// visualizer widgets it owns a private analyser tap and render loop.
type OscilloscopeWidget struct {
	widget.BaseWidget

	logger   *slog.Logger
	raster   *canvas.Raster
	renderer *render.Oscilloscope
	sched    render.Scheduler

	mu      sync.Mutex
	context *visualizer.Context
	tap     *visualizer.Analyser
	loop    *render.Loop
	scratch []float64
	latest  []float64
}

// NewOscilloscopeWidget creates the widget.
func NewOscilloscopeWidget(logger *slog.Logger, sched render.Scheduler, settings domain.OscilloscopeSettings) *OscilloscopeWidget {
	v := &OscilloscopeWidget{
		logger:   logger,
		renderer: render.NewOscilloscope(settings),
		sched:    sched,
	}

	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)

	return v
}

// CreateRenderer implements fyne.Widget.
func (v *OscilloscopeWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize returns a minimal size so the widget expands to fill available space.
func (v *OscilloscopeWidget) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// Attach opens an analyser tap on the context and starts the render loop.
func (v *OscilloscopeWidget) Attach(ctx *visualizer.Context) error {
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

// Detach stops the render loop and closes the tap.
func (v *OscilloscopeWidget) Detach() {
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

// ApplySettings reconfigures the renderer, restarting the loop when the frame
// rate changed.
func (v *OscilloscopeWidget) ApplySettings(settings domain.OscilloscopeSettings) {
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

func (v *OscilloscopeWidget) restartLoop(fps int) {
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

// frame pulls the latest sample window from the tap.
func (v *OscilloscopeWidget) frame() error {
	v.mu.Lock()
	tap := v.tap
	scratch := v.scratch
	v.mu.Unlock()

	if tap == nil {
		return nil
	}

	samples, err := tap.TimeDomain(scratch)
	if err != nil {
		if errors.Is(err, domain.ErrTapClosed) {
			return nil
		}
		return err
	}

	v.mu.Lock()
	v.scratch = samples
	v.latest = append(v.latest[:0], samples...)
	v.mu.Unlock()

	v.raster.Refresh()
	return nil
}

// draw is the raster generator function.
func (v *OscilloscopeWidget) draw(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	v.mu.Lock()
	v.renderer.Draw(img, v.latest)
	v.mu.Unlock()
	return img
}

// Verify interface implementation
var _ fyne.Widget = (*OscilloscopeWidget)(nil)
