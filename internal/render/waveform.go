package render

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// WaveformStyle configures the waveform summary renderer.
type WaveformStyle struct {
	Background  color.RGBA
	Played      color.RGBA
	Unplayed    color.RGBA
	Placeholder color.RGBA // replaces Unplayed while the data is synthetic
	Playhead    color.RGBA
	Pulse       color.RGBA
	BarGap      int // pixels between bars
}

// DefaultWaveformStyle returns the standard dark style.
func DefaultWaveformStyle() WaveformStyle {
	return WaveformStyle{
		Background:  color.RGBA{R: 14, G: 16, B: 20, A: 255},
		Played:      color.RGBA{R: 64, G: 200, B: 128, A: 255},
		Unplayed:    color.RGBA{R: 70, G: 78, B: 90, A: 255},
		Placeholder: color.RGBA{R: 48, G: 54, B: 64, A: 255},
		Playhead:    color.RGBA{R: 240, G: 240, B: 240, A: 255},
		Pulse:       color.RGBA{R: 240, G: 240, B: 240, A: 200},
		BarGap:      1,
	}
}

// Waveform draws an amplitude sequence as mirrored vertical bars with a
// played/unplayed split at the playhead, a playhead marker, and an animated
// pulse near the playhead while buffering.
//
// Draw is a single-shot operation; the owner re-invokes it per frame (via a
// Loop) only while playback is active, so a static waveform costs nothing.
type Waveform struct {
	style WaveformStyle

	// pulsePhase advances once per Draw to animate the buffering pulse.
	pulsePhase float64
}

// NewWaveform creates a waveform renderer.
func NewWaveform(style WaveformStyle) *Waveform {
	return &Waveform{style: style}
}

// Draw renders the sequence into img. isPlaceholder selects the dimmed
// style for synthetic data.
func (r *Waveform) Draw(img *image.RGBA, seq domain.AmplitudeSequence, state domain.PlaybackSnapshot, isPlaceholder bool) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fillBackground(img, r.style.Background)
	if w == 0 || h == 0 || len(seq) == 0 {
		return
	}

	progressX := int(float64(w) * state.Progress())
	centerY := h / 2

	unplayed := r.style.Unplayed
	if isPlaceholder {
		unplayed = r.style.Placeholder
	}

	barSlot := float64(w) / float64(len(seq))
	barW := int(barSlot) - r.style.BarGap
	if barW < 1 {
		barW = 1
	}

	for i, amp := range seq {
		half := int(clamp01(amp) * float64(centerY-1))
		if half < 1 {
			half = 1
		}
		barX := int(float64(i) * barSlot)

		col := unplayed
		if barX < progressX {
			col = r.style.Played
		}
		for x := barX; x < barX+barW && x < w; x++ {
			drawVLine(img, x, centerY-half, centerY+half, col)
		}
	}

	r.drawPlayhead(img, progressX, h, state.Buffering)
}

func (r *Waveform) drawPlayhead(img *image.RGBA, progressX, h int, buffering bool) {
	drawVLine(img, progressX, 0, h-1, r.style.Playhead)
	if progressX+1 < img.Bounds().Dx() {
		drawVLine(img, progressX+1, 0, h-1, r.style.Playhead)
	}

	if buffering {
		// Pulsing dot next to the playhead while data is arriving.
		r.pulsePhase += 0.25
		radius := 3 + 2*math.Abs(math.Sin(r.pulsePhase))
		drawFilledCircle(img, progressX, h/2, radius, r.style.Pulse)
	}
}

// SeekPosition maps a pointer's horizontal offset within the rendered widget
// to a playback position. displayWidth is the widget's on-screen width, not
// the pixel buffer width. Returns ok=false when the duration is not finite
// or not positive; the widget stays non-interactive in that case.
func SeekPosition(x, displayWidth float64, duration time.Duration) (time.Duration, bool) {
	sec := duration.Seconds()
	if displayWidth <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 {
		return 0, false
	}
	frac := clamp01(x / displayWidth)
	return time.Duration(frac * sec * float64(time.Second)), true
}
