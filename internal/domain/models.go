// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the TrackDraft waveform viewer.
package domain

import (
	"math"
	"time"
)

// AmplitudeSequence is a fixed-length summary of a track's loudness envelope,
// normalized to [0, 1]. It is immutable once produced: a better-quality source
// replaces the whole slice, sequences are never merged across sources.
type AmplitudeSequence []float64

// Clone returns an independent copy of the sequence.
func (s AmplitudeSequence) Clone() AmplitudeSequence {
	if s == nil {
		return nil
	}
	out := make(AmplitudeSequence, len(s))
	copy(out, s)
	return out
}

// WaveformSource identifies which tier produced the currently displayed
// amplitude sequence.
type WaveformSource int

const (
	// SourcePlaceholder is the synthetic first-paint envelope shown until a
	// real tier resolves, and the terminal fallback when analysis fails.
	SourcePlaceholder WaveformSource = iota

	// SourcePersisted means the sequence came from the peaks store
	// (previously computed and saved for this track).
	SourcePersisted

	// SourceURLCache means the sequence came from a peaks URL, possibly via
	// the two-tier cache.
	SourceURLCache

	// SourceAnalyzed means the sequence was computed by decoding the audio
	// resource on the fly.
	SourceAnalyzed
)

// String returns a human-readable representation of the waveform source.
func (s WaveformSource) String() string {
	switch s {
	case SourcePlaceholder:
		return "placeholder"
	case SourcePersisted:
		return "persisted"
	case SourceURLCache:
		return "url-cache"
	case SourceAnalyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// Track represents one shared work-in-progress track version.
type Track struct {
	// ID uniquely identifies the track version.
	ID string

	// Title is the display title.
	Title string

	// Artist is the uploader's display name.
	Artist string

	// Version is the version label within the track's version tree (e.g. "v3").
	Version string

	// AudioURL locates the audio resource; an http(s) URL or a local path.
	AudioURL string

	// PeaksURL optionally locates a pre-computed peaks JSON payload.
	PeaksURL string
}

// PlaybackSnapshot is the playback state the renderers consume. It is a value
// copy taken from the audio player; renderers never hold a reference into the
// player's internals.
type PlaybackSnapshot struct {
	// Position is the current playback position.
	Position time.Duration

	// Duration is the total track duration; zero while unknown.
	Duration time.Duration

	// Playing reports whether audio is currently advancing.
	Playing bool

	// Buffering reports whether the resource is still being fetched or decoded.
	Buffering bool
}

// Progress returns the playback position as a fraction in [0, 1].
// Returns 0 when the duration is unknown or invalid.
func (p PlaybackSnapshot) Progress() float64 {
	sec := p.Duration.Seconds()
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec <= 0 {
		return 0
	}
	frac := p.Position.Seconds() / sec
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// Active reports whether the waveform needs per-frame redraws (animated
// playhead or buffering pulse). A static waveform is drawn once.
func (p PlaybackSnapshot) Active() bool {
	return p.Playing || p.Buffering
}
