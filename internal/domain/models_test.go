package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAmplitudeSequence_Clone(t *testing.T) {
	seq := AmplitudeSequence{0.1, 0.5, 0.9}
	clone := seq.Clone()

	assert.Equal(t, seq, clone)
	clone[0] = 0.99
	assert.Equal(t, 0.1, seq[0])

	assert.Nil(t, AmplitudeSequence(nil).Clone())
}

func TestWaveformSource_String(t *testing.T) {
	assert.Equal(t, "placeholder", SourcePlaceholder.String())
	assert.Equal(t, "persisted", SourcePersisted.String())
	assert.Equal(t, "url-cache", SourceURLCache.String())
	assert.Equal(t, "analyzed", SourceAnalyzed.String())
	assert.Equal(t, "unknown", WaveformSource(42).String())
}

func TestPlaybackSnapshot_Progress(t *testing.T) {
	tests := []struct {
		name string
		snap PlaybackSnapshot
		want float64
	}{
		{"halfway", PlaybackSnapshot{Position: 30 * time.Second, Duration: time.Minute}, 0.5},
		{"at start", PlaybackSnapshot{Duration: time.Minute}, 0},
		{"at end", PlaybackSnapshot{Position: time.Minute, Duration: time.Minute}, 1},
		{"unknown duration", PlaybackSnapshot{Position: 30 * time.Second}, 0},
		{"negative duration", PlaybackSnapshot{Position: time.Second, Duration: -time.Minute}, 0},
		{"position past end", PlaybackSnapshot{Position: 2 * time.Minute, Duration: time.Minute}, 1},
		{"negative position", PlaybackSnapshot{Position: -time.Second, Duration: time.Minute}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.Progress())
		})
	}
}

func TestPlaybackSnapshot_Active(t *testing.T) {
	assert.False(t, PlaybackSnapshot{}.Active())
	assert.True(t, PlaybackSnapshot{Playing: true}.Active())
	assert.True(t, PlaybackSnapshot{Buffering: true}.Active())
}
