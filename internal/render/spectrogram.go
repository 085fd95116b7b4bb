package render

import (
	"image"
	"image/color"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// Spectrogram maintains a bounded rolling buffer of frequency snapshots and
// draws them as a scrolling intensity map. Snapshots are rendered once into
// an offscreen column buffer; Draw only blits and scales, so the expensive
// recomputation is decoupled from display compositing.
type Spectrogram struct {
	settings domain.SpectrogramSettings

	// offscreen holds HistoryColumns x FrequencyBins intensity pixels as a
	// ring of columns; head is the next column to overwrite.
	offscreen *image.RGBA
	head      int
	written   int

	// advance accumulates the fractional time scale between pushes.
	advance float64
}

// NewSpectrogram creates a spectrogram renderer.
func NewSpectrogram(settings domain.SpectrogramSettings) *Spectrogram {
	r := &Spectrogram{}
	r.Configure(settings)
	return r
}

// Configure replaces the settings, resetting the history when the buffer
// geometry changes.
func (r *Spectrogram) Configure(settings domain.SpectrogramSettings) {
	if settings.HistoryColumns < 2 {
		settings.HistoryColumns = 2
	}
	if settings.FrequencyBins < 2 {
		settings.FrequencyBins = 2
	}
	resized := r.offscreen == nil ||
		settings.HistoryColumns != r.settings.HistoryColumns ||
		settings.FrequencyBins != r.settings.FrequencyBins
	r.settings = settings
	if resized {
		r.offscreen = image.NewRGBA(image.Rect(0, 0, settings.HistoryColumns, settings.FrequencyBins))
		r.head = 0
		r.written = 0
		r.advance = 0
	}
}

// Settings returns the current settings.
func (r *Spectrogram) Settings() domain.SpectrogramSettings {
	return r.settings
}

// Columns returns how many history columns hold data, for tests.
func (r *Spectrogram) Columns() int {
	if r.written > r.settings.HistoryColumns {
		return r.settings.HistoryColumns
	}
	return r.written
}

// Push folds one frequency snapshot into the rolling history. The time
// scale controls how many columns each snapshot advances; fractions
// accumulate so a scale of 0.5 advances every other push.
func (r *Spectrogram) Push(mags []float64) {
	if len(mags) == 0 {
		return
	}

	scale := r.settings.TimeScale
	if scale <= 0 {
		scale = 1
	}
	r.advance += scale
	for r.advance >= 1 {
		r.advance--
		r.writeColumn(mags)
	}
}

func (r *Spectrogram) writeColumn(mags []float64) {
	bins := r.settings.FrequencyBins
	for yBin := range bins {
		// Row 0 is the highest configured frequency; low end at the bottom.
		srcIdx := (bins - 1 - yBin) * (len(mags) - 1) / (bins - 1)
		r.offscreen.SetRGBA(r.head, yBin, r.intensityColor(clamp01(mags[srcIdx])))
	}
	r.head = (r.head + 1) % r.settings.HistoryColumns
	r.written++
}

// Draw blits the rolled history into img, oldest column on the left,
// newest on the right, nearest-neighbor scaled to the target size.
func (r *Spectrogram) Draw(img *image.RGBA) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fillBackground(img, barsBackground)
	if w == 0 || h == 0 || r.written == 0 {
		return
	}

	cols := r.settings.HistoryColumns
	bins := r.settings.FrequencyBins

	for x := range w {
		var srcCol int
		if r.written < cols {
			// Ring has not wrapped: stretch the written prefix.
			srcCol = x * r.written / w
		} else {
			// head is the oldest column once the ring has wrapped.
			srcCol = (r.head + x*cols/w) % cols
		}
		for y := range h {
			srcRow := y * (bins - 1) / maxInt(h-1, 1)
			img.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, r.offscreen.RGBAAt(srcCol, srcRow))
		}
	}
}

// intensityColor maps a normalized magnitude to the configured color map.
func (r *Spectrogram) intensityColor(v float64) color.RGBA {
	if r.settings.ColorMap == "mono" {
		g := uint8(255 * v)
		return color.RGBA{R: g, G: g, B: g, A: 255}
	}

	// Heat map: quiet = dark blue, loud = bright red-white.
	hue := 0.66 * (1 - v)
	light := 0.04 + 0.6*v
	red, green, blue := hslToRGB(hue, 1.0, light)
	return color.RGBA{
		R: uint8(255 * red),
		G: uint8(255 * green),
		B: uint8(255 * blue),
		A: 255,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
