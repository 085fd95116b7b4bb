// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external services.
package ports

import (
	"context"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// PeaksStore is the persisted-waveform collaborator: a service-side store of
// amplitude sequences previously computed for a track (the first and
// authoritative resolver tier).
//
// Thread-safety: implementations must be thread-safe.
type PeaksStore interface {
	// Load retrieves the persisted amplitude sequence for a track.
	// Returns domain.ErrSourceNotFound when the track has no stored peaks;
	// that is an expected outcome, not a failure.
	Load(ctx context.Context, trackID string) (domain.AmplitudeSequence, error)

	// Save persists an amplitude sequence for a track so a later session can
	// resolve it from the first tier. Saving the same sequence twice is
	// idempotent.
	Save(ctx context.Context, trackID string, seq domain.AmplitudeSequence) error
}
