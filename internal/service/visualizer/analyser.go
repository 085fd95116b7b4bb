// Package visualizer provides the live audio analysis graph behind the
// real-time visualizers: a shared sample tap fanned out to per-visualizer
// analysers, so each visualizer reads its own snapshot without disturbing
// the others.
package visualizer

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// DefaultFFTSize is the analyser window when the caller does not configure one.
const DefaultFFTSize = 2048

// Analyser keeps a rolling window of mono samples for one visualizer and
// derives frequency- and time-domain snapshots from it. Every visualizer
// owns its own analyser, fed from the shared analysis context, which
// guarantees configuration isolation between visualizers.
type Analyser struct {
	mu         sync.Mutex
	ring       []float64
	pos        int
	sampleRate int
	closed     bool
}

func newAnalyser(fftSize int) *Analyser {
	if fftSize <= 0 {
		fftSize = DefaultFFTSize
	}
	return &Analyser{
		ring: make([]float64, fftSize),
	}
}

// push mixes interleaved stereo frames to mono into the rolling window.
// Called from the audio render path; must stay cheap.
func (a *Analyser) push(samples [][2]float64, sampleRate int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.sampleRate = sampleRate
	for _, s := range samples {
		a.ring[a.pos] = 0.5 * (s[0] + s[1])
		a.pos = (a.pos + 1) % len(a.ring)
	}
}

// SampleRate returns the sample rate of the samples seen so far, or 0 before
// any audio arrived.
func (a *Analyser) SampleRate() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampleRate
}

// Size returns the analyser's window length.
func (a *Analyser) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ring)
}

// TimeDomain copies the latest window of mono samples, oldest first, into
// dst (grown if needed) and returns it.
func (a *Analyser) TimeDomain(dst []float64) ([]float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, domain.ErrTapClosed
	}

	dst = resize(dst, len(a.ring))
	n := copy(dst, a.ring[a.pos:])
	copy(dst[n:], a.ring[:a.pos])
	return dst, nil
}

// Frequencies computes Hann-windowed FFT magnitudes of the latest window,
// normalized to roughly [0, 1], restricted to bins at or below maxFrequency
// (Hz). A maxFrequency of 0, or an analyser that has not seen audio yet,
// yields the full positive-frequency half.
func (a *Analyser) Frequencies(dst []float64, maxFrequency int) ([]float64, error) {
	buf, err := a.TimeDomain(nil)
	if err != nil {
		return nil, err
	}
	rate := a.SampleRate()

	window.Apply(buf, window.Hann)
	spectrum := fft.FFTReal(buf)

	bins := len(buf) / 2
	if maxFrequency > 0 && rate > 0 {
		limit := maxFrequency * len(buf) / rate
		if limit < 1 {
			limit = 1
		}
		if limit < bins {
			bins = limit
		}
	}

	dst = resize(dst, bins)
	scale := 2.0 / float64(len(buf))
	for i := range bins {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		m := scale * math.Sqrt(re*re+im*im)
		if m > 1 {
			m = 1
		}
		dst[i] = m
	}
	return dst, nil
}

func (a *Analyser) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

func resize(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
