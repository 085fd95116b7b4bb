package waveform

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// DefaultPlaceholderVariance is the variance used when the caller does not
// configure one.
const DefaultPlaceholderVariance = 0.3

// Placeholder produces a synthetic amplitude envelope for a track: a smooth
// arch with pseudo-random variation seeded by the track identifier, so the
// same track always gets the same placeholder. It serves as the immediate
// first paint on track select and as the terminal fallback when analysis
// fails.
func Placeholder(trackID string, segmentCount int, variance float64) domain.AmplitudeSequence {
	if segmentCount <= 0 {
		return nil
	}
	if variance < 0 {
		variance = 0
	}

	rng := rand.New(rand.NewSource(placeholderSeed(trackID)))
	out := make(domain.AmplitudeSequence, segmentCount)

	// Random walk over a gentle arch, then a smoothing pass to avoid the
	// jagged look real waveforms never have at summary resolution.
	walk := 0.0
	for i := range segmentCount {
		frac := 0.5
		if segmentCount > 1 {
			frac = float64(i) / float64(segmentCount-1)
		}
		base := 0.3 + 0.35*math.Sin(math.Pi*frac)
		walk += (rng.Float64() - 0.5) * variance
		walk *= 0.85 // pull the walk back toward the arch
		out[i] = clampUnit(base + walk)
	}

	smooth := make(domain.AmplitudeSequence, segmentCount)
	for i := range segmentCount {
		sum, count := out[i], 1.0
		if i > 0 {
			sum += out[i-1]
			count++
		}
		if i < segmentCount-1 {
			sum += out[i+1]
			count++
		}
		smooth[i] = sum / count
	}
	return smooth
}

func placeholderSeed(trackID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(trackID))
	return int64(h.Sum64())
}

func clampUnit(v float64) float64 {
	if v < 0.02 {
		return 0.02
	}
	if v > 1 {
		return 1
	}
	return v
}
