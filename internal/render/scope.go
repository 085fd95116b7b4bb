package render

import (
	"image"
	"image/color"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// Oscilloscope draws a time-domain sample snapshot as a connected line,
// dots, or vertical bars around the horizontal center line.
type Oscilloscope struct {
	settings domain.OscilloscopeSettings
}

// NewOscilloscope creates an oscilloscope renderer.
func NewOscilloscope(settings domain.OscilloscopeSettings) *Oscilloscope {
	return &Oscilloscope{settings: settings}
}

// Configure replaces the settings.
func (r *Oscilloscope) Configure(settings domain.OscilloscopeSettings) {
	r.settings = settings
}

// Settings returns the current settings.
func (r *Oscilloscope) Settings() domain.OscilloscopeSettings {
	return r.settings
}

// Draw renders one frame from the time-domain snapshot.
func (r *Oscilloscope) Draw(img *image.RGBA, samples []float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fillBackground(img, barsBackground)
	// Mapping samples onto columns needs at least two of each.
	if w < 2 || h == 0 || len(samples) < 2 {
		return
	}

	centerY := float64(h) / 2
	gain := r.settings.Sensitivity
	if gain <= 0 {
		gain = 1
	}
	sign := 1.0
	if r.settings.InvertY {
		sign = -1
	}

	amp := func(i int) float64 {
		idx := i * (len(samples) - 1) / (w - 1)
		v := samples[idx] * gain * sign
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		return centerY - v*(centerY-1)
	}

	if r.settings.Fill {
		fill := r.settings.LineColor
		fill.A = 70
		for x := range w {
			drawVLine(img, x, int(centerY), int(amp(x)), fill)
		}
	}

	lineW := r.settings.LineWidth
	if lineW < 1 {
		lineW = 1
	}

	switch r.settings.Mode {
	case domain.ScopeDots:
		for x := 0; x < w; x++ {
			if r.dashedOut(x) {
				continue
			}
			drawFilledCircle(img, x, int(amp(x)), float64(lineW), r.settings.LineColor)
		}
	case domain.ScopeBars:
		for x := 0; x < w; x++ {
			if r.dashedOut(x) {
				continue
			}
			drawVLine(img, x, int(centerY), int(amp(x)), r.settings.LineColor)
		}
	default: // domain.ScopeLine
		for x := 0; x < w-1; x++ {
			if r.dashedOut(x) {
				continue
			}
			drawThickLine(img, float64(x), amp(x), float64(x+1), amp(x+1), lineW, r.settings.LineColor)
		}
	}

	// Faint center reference line on top.
	drawCenterLine(img, int(centerY), w)
}

// dashedOut reports whether column x falls in a gap of the dash pattern.
func (r *Oscilloscope) dashedOut(x int) bool {
	d := r.settings.DashLength
	if d <= 0 {
		return false
	}
	return (x/d)%2 == 1
}

func drawCenterLine(img *image.RGBA, y, w int) {
	col := color.RGBA{R: 60, G: 66, B: 76, A: 255}
	for x := 0; x < w; x += 3 {
		img.SetRGBA(x, y, col)
	}
}
