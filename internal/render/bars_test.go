package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdraft/trackdraft/internal/domain"
)

func barsSettings() domain.FFTBarsSettings {
	s := domain.DefaultVisualizerSettings().FFTBars
	s.BarCount = 4
	s.LogScale = false
	return s
}

func TestFFTBars_HeightsFollowMagnitudes(t *testing.T) {
	r := NewFFTBars(barsSettings())

	// Two bins per bar; the bar takes the louder bin.
	mags := []float64{0.0, 0.1, 0.5, 0.2, 1.0, 0.9, 0.0, 0.0}
	heights := r.barHeights(mags, 100)

	require.Len(t, heights, 4)
	assert.InDelta(t, 10, heights[0], 0.001)
	assert.InDelta(t, 50, heights[1], 0.001)
	assert.InDelta(t, 100, heights[2], 0.001)
	assert.InDelta(t, 0, heights[3], 0.001)
}

func TestFFTBars_LogScaleLiftsQuietBins(t *testing.T) {
	linear := NewFFTBars(barsSettings())

	logSettings := barsSettings()
	logSettings.LogScale = true
	logScaled := NewFFTBars(logSettings)

	mags := []float64{0.1, 0.1, 0.1, 0.1}
	assert.Greater(t, logScaled.barHeights(mags, 100)[0], linear.barHeights(mags, 100)[0])

	// Full scale maps to full height either way.
	full := []float64{1, 1, 1, 1}
	assert.InDelta(t, 100, logScaled.barHeights(full, 100)[0], 0.001)
}

func TestFFTBars_HeightsClampOverdrive(t *testing.T) {
	r := NewFFTBars(barsSettings())
	heights := r.barHeights([]float64{3.5, 0, 0, 0}, 100)
	assert.InDelta(t, 100, heights[0], 0.001)
}

func TestFFTBars_CapsFallBetweenFrames(t *testing.T) {
	r := NewFFTBars(barsSettings())
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))

	loud := []float64{1, 1, 1, 1}
	r.Draw(img, loud)
	capAfterLoud := r.capHeights[0]
	assert.Greater(t, capAfterLoud, 0.0)

	silent := []float64{0, 0, 0, 0}
	r.Draw(img, silent)
	assert.InDelta(t, capAfterLoud-3.0, r.capHeights[0], 0.001)

	// Caps never fall below the floor.
	for range 100 {
		r.Draw(img, silent)
	}
	assert.Equal(t, 0.0, r.capHeights[0])
}

func TestFFTBars_ConfigureResetsCapsOnBarCountChange(t *testing.T) {
	r := NewFFTBars(barsSettings())
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r.Draw(img, []float64{1, 1, 1, 1})
	require.Greater(t, r.capHeights[0], 0.0)

	changed := barsSettings()
	changed.BarCount = 8
	r.Configure(changed)
	require.Len(t, r.capHeights, 8)
	assert.Equal(t, 0.0, r.capHeights[0])

	// Same bar count keeps the animation state.
	recolored := changed
	recolored.LogScale = true
	r.Draw(img, []float64{1, 0, 0, 0, 0, 0, 0, 0})
	before := r.capHeights[0]
	r.Configure(recolored)
	assert.Equal(t, before, r.capHeights[0])
}

func TestFFTBars_DrawPaintsBars(t *testing.T) {
	s := barsSettings()
	s.BarCount = 1
	r := NewFFTBars(s)

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	r.Draw(img, []float64{1.0})

	assert.Equal(t, s.BarColor, img.RGBAAt(16, 30))
	// Background survives above idle bars on a silent redraw.
	r.Draw(img, []float64{0.0})
	assert.Equal(t, barsBackground, img.RGBAAt(16, 12))
}

func TestFFTBars_DrawHandlesDegenerateInput(t *testing.T) {
	r := NewFFTBars(barsSettings())
	assert.NotPanics(t, func() {
		r.Draw(image.NewRGBA(image.Rect(0, 0, 0, 0)), []float64{1})
		r.Draw(image.NewRGBA(image.Rect(0, 0, 16, 16)), nil)
	})
}
