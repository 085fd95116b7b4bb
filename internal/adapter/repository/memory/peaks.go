package memory

import (
	"context"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// PeaksStore implements ports.PeaksStore in memory. It stands in for the
// service-side waveform table; the resolver also writes analysis results
// back so a track analyzed once resolves from the first tier afterwards.
//
// Thread-safe: all operations protected by sync.RWMutex.
type PeaksStore struct {
	mu    sync.RWMutex
	peaks map[string]domain.AmplitudeSequence
}

// NewPeaksStore creates an empty in-memory peaks store.
func NewPeaksStore() *PeaksStore {
	return &PeaksStore{
		peaks: make(map[string]domain.AmplitudeSequence),
	}
}

// Load retrieves the persisted amplitude sequence for a track.
// Returns domain.ErrSourceNotFound when the track has no stored peaks.
func (s *PeaksStore) Load(_ context.Context, trackID string) (domain.AmplitudeSequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq, ok := s.peaks[trackID]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	return seq.Clone(), nil
}

// Save persists an amplitude sequence for a track. Saving the same sequence
// twice is idempotent.
func (s *PeaksStore) Save(_ context.Context, trackID string, seq domain.AmplitudeSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peaks[trackID] = seq.Clone()
	return nil
}

// Verify interface implementation at compile time.
var _ ports.PeaksStore = (*PeaksStore)(nil)
