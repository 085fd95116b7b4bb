package render

import (
	"image"
	"image/color"
	"math"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// barsBackground is shared by the three real-time visualizers.
var barsBackground = color.RGBA{R: 8, G: 10, B: 14, A: 255}

// FFTBars draws frequency magnitudes as vertical bars with falling caps.
// The input magnitudes are already restricted to the configured maximum
// frequency by the analyser; this renderer groups them into the configured
// bar count and applies the configured height scale.
type FFTBars struct {
	settings domain.FFTBarsSettings

	// capHeights carries the falling-cap animation between frames.
	capHeights []float64
}

// NewFFTBars creates a frequency-bar renderer.
func NewFFTBars(settings domain.FFTBarsSettings) *FFTBars {
	return &FFTBars{
		settings:   settings,
		capHeights: make([]float64, settings.BarCount),
	}
}

// Configure replaces the settings. The cap animation restarts when the bar
// count changes.
func (r *FFTBars) Configure(settings domain.FFTBarsSettings) {
	if settings.BarCount != r.settings.BarCount {
		r.capHeights = make([]float64, settings.BarCount)
	}
	r.settings = settings
}

// Settings returns the current settings.
func (r *FFTBars) Settings() domain.FFTBarsSettings {
	return r.settings
}

// Draw renders one frame of bars from the magnitude snapshot.
func (r *FFTBars) Draw(img *image.RGBA, mags []float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fillBackground(img, barsBackground)
	if w == 0 || h == 0 || len(mags) == 0 || r.settings.BarCount <= 0 {
		return
	}

	numBars := r.settings.BarCount
	heights := r.barHeights(mags, float64(h-2))

	minGap := 2
	barW := (w - minGap*(numBars-1)) / numBars
	if barW < 1 {
		barW = 1
	}
	startX := (w - numBars*barW - (numBars-1)*minGap) / 2
	if startX < 0 {
		startX = 0
	}

	const capFalloff = 3.0
	for i := range numBars {
		barH := heights[i]

		// Falling cap: snaps up, drifts down.
		if barH > r.capHeights[i] {
			r.capHeights[i] = barH
		} else {
			r.capHeights[i] -= capFalloff
			if r.capHeights[i] < 0 {
				r.capHeights[i] = 0
			}
		}

		barX := startX + i*(barW+minGap)
		for x := barX; x < barX+barW && x < w; x++ {
			drawVLine(img, x, h-1-int(barH), h-1, r.settings.BarColor)
			capY := h - 1 - int(r.capHeights[i])
			if capY >= 0 && capY < h {
				img.SetRGBA(x, capY, r.settings.CapColor)
				if capY > 0 {
					img.SetRGBA(x, capY-1, r.settings.CapColor)
				}
			}
		}
	}
}

// barHeights groups the magnitude bins into bars and scales them to pixel
// heights, logarithmically or linearly per the settings.
func (r *FFTBars) barHeights(mags []float64, maxHeight float64) []float64 {
	numBars := r.settings.BarCount
	heights := make([]float64, numBars)
	binsPerBar := len(mags) / numBars
	if binsPerBar < 1 {
		binsPerBar = 1
	}

	for i := range numBars {
		start := i * binsPerBar
		if start >= len(mags) {
			break
		}
		end := start + binsPerBar
		if end > len(mags) {
			end = len(mags)
		}

		var peak float64
		for _, m := range mags[start:end] {
			if m > peak {
				peak = m
			}
		}

		v := clamp01(peak)
		if r.settings.LogScale {
			// log10 of 1..10 maps [0,1] onto [0,1] with bass-friendly lift.
			v = math.Log10(1 + 9*v)
		}
		heights[i] = v * maxHeight
	}
	return heights
}
