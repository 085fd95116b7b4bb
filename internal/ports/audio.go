// Package ports defines the audio playback and sample-tap interfaces.
package ports

import (
	"context"
	"time"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// AudioPlayer is the playback collaborator. The waveform and visualizer core
// consumes its state signals (position, duration, playing, buffering) and
// issues seeks; everything else about playback is outside the core.
//
// Thread-safety: implementations must be thread-safe.
type AudioPlayer interface {
	// Load fetches and prepares a track's audio resource for playback.
	// It replaces any previously loaded track.
	Load(ctx context.Context, track domain.Track) error

	// Play starts or resumes playback.
	Play() error

	// Pause pauses playback, keeping the position.
	Pause() error

	// Stop stops playback and releases the loaded resource.
	Stop() error

	// Seek sets the playback position. Positions outside [0, Duration] are
	// clamped.
	Seek(position time.Duration) error

	// Snapshot returns a value copy of the current playback state.
	Snapshot() domain.PlaybackSnapshot
}

// SampleSink receives decoded sample frames from a playing source. The
// visualizer analysis context implements this to tap the live audio.
type SampleSink interface {
	// Consume is called from the audio render path with interleaved stereo
	// frames in [-1, 1]. Implementations must not block and must not retain
	// the slice past the call.
	Consume(samples [][2]float64, sampleRate int)
}

// SampleSource is a playback engine that can expose its decoded samples.
// Attaching a sink is the moment the live analysis graph comes to life; it
// fails with *domain.AnalysisContextError when the engine cannot tap the
// current resource (e.g. a protected remote stream).
type SampleSource interface {
	// AttachSink routes a copy of every decoded frame to the sink until
	// DetachSink is called. At most one sink is attached at a time.
	AttachSink(sink SampleSink) error

	// DetachSink removes the attached sink, if any.
	DetachSink()
}
