// Package waveform implements the waveform-data acquisition pipeline:
// a two-tier peaks cache, a URL peaks loader, an on-the-fly audio analysis
// engine and the resolver that walks them in priority order.
package waveform

import (
	"math"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// cacheKeyPrefix namespaces waveform entries inside the shared key-value
// store. The key shape is stable across sessions; there is no schema
// versioning, corrupt entries are caught by validation and evicted.
const cacheKeyPrefix = "waveform_peaks_"

// CacheKey derives the persistent-storage key for a track identifier or
// peaks URL.
func CacheKey(identifier string) string {
	return cacheKeyPrefix + identifier
}

// validatePeaks checks the shape of a decoded peaks payload: it must be a
// non-empty numeric array whose values are finite and within [-1, 1].
func validatePeaks(values []float64) error {
	if len(values) == 0 {
		return domain.ErrInvalidPeaksData
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < -1 || v > 1 {
			return domain.ErrInvalidPeaksData
		}
	}
	return nil
}

// normalizePeaks folds a validated payload into the renderer's [0, 1]
// amplitude convention. Payloads exported as signed min/max pairs come
// through as absolute values; already-positive payloads are unchanged.
func normalizePeaks(values []float64) domain.AmplitudeSequence {
	out := make(domain.AmplitudeSequence, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}
