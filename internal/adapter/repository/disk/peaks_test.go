package disk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdraft/trackdraft/internal/domain"
)

func newTestPeaksStore(t *testing.T) (*PeaksStore, *KeyValueStore) {
	t.Helper()
	kv, err := NewKeyValueStore(t.TempDir())
	require.NoError(t, err)
	return NewPeaksStore(kv), kv
}

func TestPeaksStore_RoundTrip(t *testing.T) {
	store, _ := newTestPeaksStore(t)
	ctx := context.Background()

	seq := domain.AmplitudeSequence{0.1, 0.5, 0.9}
	require.NoError(t, store.Save(ctx, "track-1", seq))

	got, err := store.Load(ctx, "track-1")
	require.NoError(t, err)
	assert.Equal(t, seq, got)
}

func TestPeaksStore_Miss(t *testing.T) {
	store, _ := newTestPeaksStore(t)

	_, err := store.Load(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestPeaksStore_EvictsCorruptEntry(t *testing.T) {
	store, kv := newTestPeaksStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set("track_peaks_track-1", []byte("not json")))
	_, err := store.Load(ctx, "track-1")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	// The corrupt entry is gone; it will not fail again next session.
	_, ok := kv.Get("track_peaks_track-1")
	assert.False(t, ok)
}

func TestPeaksStore_EvictsEmptyEntry(t *testing.T) {
	store, kv := newTestPeaksStore(t)

	require.NoError(t, kv.Set("track_peaks_track-1", []byte("[]")))
	_, err := store.Load(context.Background(), "track-1")
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	_, ok := kv.Get("track_peaks_track-1")
	assert.False(t, ok)
}

func TestPeaksStore_TracksAreIndependent(t *testing.T) {
	store, _ := newTestPeaksStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.AmplitudeSequence{0.1}))
	require.NoError(t, store.Save(ctx, "b", domain.AmplitudeSequence{0.9}))

	gotA, err := store.Load(ctx, "a")
	require.NoError(t, err)
	gotB, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.NotEqual(t, gotA, gotB)
}
