package disk

import (
	"context"
	"encoding/json"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

const peaksKeyPrefix = "track_peaks_"

// PeaksStore implements ports.PeaksStore on top of a key-value store, giving
// analyzed waveforms a durable home across sessions. It works with any
// ports.KeyValueStore; tests pass the in-memory one.
type PeaksStore struct {
	kv ports.KeyValueStore
}

// NewPeaksStore creates a peaks store over kv.
func NewPeaksStore(kv ports.KeyValueStore) *PeaksStore {
	return &PeaksStore{kv: kv}
}

// Load retrieves the persisted sequence for a track. A missing or corrupt
// entry reports domain.ErrSourceNotFound; corrupt entries are evicted.
func (s *PeaksStore) Load(_ context.Context, trackID string) (domain.AmplitudeSequence, error) {
	data, ok := s.kv.Get(peaksKeyPrefix + trackID)
	if !ok {
		return nil, domain.ErrSourceNotFound
	}

	var seq domain.AmplitudeSequence
	if err := json.Unmarshal(data, &seq); err != nil || len(seq) == 0 {
		s.kv.Delete(peaksKeyPrefix + trackID)
		return nil, domain.ErrSourceNotFound
	}
	return seq, nil
}

// Save persists the sequence for a track.
func (s *PeaksStore) Save(_ context.Context, trackID string, seq domain.AmplitudeSequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return domain.NewRepositoryError("save", "peaks", "cannot marshal sequence", err)
	}
	if err := s.kv.Set(peaksKeyPrefix+trackID, data); err != nil {
		return domain.NewRepositoryError("save", "peaks", "cannot store sequence", err)
	}
	return nil
}

// Verify interface implementation at compile time.
var _ ports.PeaksStore = (*PeaksStore)(nil)
