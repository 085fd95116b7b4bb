// Package domain defines the visualizer configuration model.
package domain

import (
	"image/color"
)

// VisualizerKind identifies one of the real-time visualizers.
type VisualizerKind string

// Available visualizer kinds.
const (
	KindFFTBars      VisualizerKind = "fft_bars"
	KindOscilloscope VisualizerKind = "oscilloscope"
	KindSpectrogram  VisualizerKind = "spectrogram"
)

// ScopeDrawMode selects how the oscilloscope connects its samples.
type ScopeDrawMode string

// Oscilloscope draw modes.
const (
	ScopeLine ScopeDrawMode = "line"
	ScopeDots ScopeDrawMode = "dots"
	ScopeBars ScopeDrawMode = "bars"
)

// DeviceProfile classifies the rendering capability of the host.
type DeviceProfile int

const (
	// ProfileFull is the default profile for capable devices.
	ProfileFull DeviceProfile = iota

	// ProfileConstrained reduces bar counts, buffer sizes and frame rates
	// for small or low-power devices.
	ProfileConstrained
)

// FFTBarsSettings configures the frequency-bar visualizer.
type FFTBarsSettings struct {
	Enabled      bool
	BarCount     int
	MaxFrequency int  // Hz; bars span [0, MaxFrequency]
	LogScale     bool // logarithmic height scale instead of linear
	BarColor     color.RGBA
	CapColor     color.RGBA
	TargetFPS    int
}

// OscilloscopeSettings configures the time-domain visualizer.
type OscilloscopeSettings struct {
	Enabled     bool
	Mode        ScopeDrawMode
	Sensitivity float64 // amplitude scaling, 1.0 = unity
	LineWidth   int
	Fill        bool
	DashLength  int // 0 disables dashing
	InvertY     bool
	LineColor   color.RGBA
	TargetFPS   int
}

// SpectrogramSettings configures the scrolling frequency-intensity map.
type SpectrogramSettings struct {
	Enabled        bool
	HistoryColumns int // bounded rolling buffer of frequency snapshots
	FrequencyBins  int
	ColorMap       string  // "heat" or "mono"
	TimeScale      float64 // columns advanced per frame, 1.0 = one
	TargetFPS      int
}

// VisualizerSettings is the configuration record for the whole suite.
// Each visualizer toggles and configures independently.
type VisualizerSettings struct {
	FFTBars      FFTBarsSettings
	Oscilloscope OscilloscopeSettings
	Spectrogram  SpectrogramSettings
}

// DefaultVisualizerSettings returns the process-wide defaults.
func DefaultVisualizerSettings() VisualizerSettings {
	return VisualizerSettings{
		FFTBars: FFTBarsSettings{
			Enabled:      true,
			BarCount:     48,
			MaxFrequency: 16000,
			LogScale:     true,
			BarColor:     color.RGBA{R: 64, G: 200, B: 128, A: 255},
			CapColor:     color.RGBA{R: 240, G: 240, B: 240, A: 255},
			TargetFPS:    60,
		},
		Oscilloscope: OscilloscopeSettings{
			Enabled:     true,
			Mode:        ScopeLine,
			Sensitivity: 1.0,
			LineWidth:   2,
			LineColor:   color.RGBA{R: 90, G: 170, B: 255, A: 255},
			TargetFPS:   60,
		},
		Spectrogram: SpectrogramSettings{
			Enabled:        true,
			HistoryColumns: 256,
			FrequencyBins:  128,
			ColorMap:       "heat",
			TimeScale:      1.0,
			TargetFPS:      30,
		},
	}
}

// ForProfile returns a copy of the settings adapted to the device profile.
// On constrained devices all three visualizers shrink together: fewer bars,
// smaller buffers, lower frame rates.
func (s VisualizerSettings) ForProfile(p DeviceProfile) VisualizerSettings {
	if p != ProfileConstrained {
		return s
	}
	out := s
	out.FFTBars.BarCount = halveAtLeast(s.FFTBars.BarCount, 16)
	out.FFTBars.TargetFPS = capFPS(s.FFTBars.TargetFPS, 30)
	out.Oscilloscope.TargetFPS = capFPS(s.Oscilloscope.TargetFPS, 30)
	out.Spectrogram.HistoryColumns = halveAtLeast(s.Spectrogram.HistoryColumns, 64)
	out.Spectrogram.FrequencyBins = halveAtLeast(s.Spectrogram.FrequencyBins, 32)
	out.Spectrogram.TargetFPS = capFPS(s.Spectrogram.TargetFPS, 15)
	return out
}

func halveAtLeast(v, floor int) int {
	if v/2 < floor {
		return floor
	}
	return v / 2
}

func capFPS(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
