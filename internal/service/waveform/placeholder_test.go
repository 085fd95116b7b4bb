package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholder_Deterministic(t *testing.T) {
	a := Placeholder("track-1", 200, DefaultPlaceholderVariance)
	b := Placeholder("track-1", 200, DefaultPlaceholderVariance)
	assert.Equal(t, a, b)
}

func TestPlaceholder_VariesByTrack(t *testing.T) {
	a := Placeholder("track-1", 200, DefaultPlaceholderVariance)
	b := Placeholder("track-2", 200, DefaultPlaceholderVariance)
	assert.NotEqual(t, a, b)
}

func TestPlaceholder_LengthAndRange(t *testing.T) {
	seq := Placeholder("track-1", 150, DefaultPlaceholderVariance)
	require.Len(t, seq, 150)
	for i, v := range seq {
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 1.0, "index %d", i)
	}
}

func TestPlaceholder_ZeroVariance(t *testing.T) {
	seq := Placeholder("track-1", 50, 0)
	require.Len(t, seq, 50)

	// Without variance the envelope is the pure arch: rising toward the
	// middle, falling toward the end.
	assert.Greater(t, seq[25], seq[0])
	assert.Greater(t, seq[25], seq[49])
}

func TestPlaceholder_NoSegments(t *testing.T) {
	assert.Nil(t, Placeholder("track-1", 0, DefaultPlaceholderVariance))
	assert.Nil(t, Placeholder("track-1", -3, DefaultPlaceholderVariance))
}
