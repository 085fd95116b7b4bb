package waveform

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// State is the resolver's position in the tier walk for the current track.
type State int

const (
	// StatePlaceholder: only the synthetic first paint exists so far.
	StatePlaceholder State = iota

	// StateLoading: a tier attempt is in flight.
	StateLoading

	// StateResolved: a tier produced the final sequence for this track
	// (possibly the placeholder, flagged as fallback).
	StateResolved
)

// peaksLoader is the URL-peaks tier, satisfied by *Loader.
type peaksLoader interface {
	LoadPeaks(ctx context.Context, url string) (domain.AmplitudeSequence, error)
}

// audioAnalyzer is the on-the-fly analysis tier, satisfied by *Analyzer.
type audioAnalyzer interface {
	Analyze(ctx context.Context, url string, segmentCount int) (domain.AmplitudeSequence, error)
}

// View is a value snapshot of the resolver's output for rendering.
type View struct {
	TrackID string

	// Sequence is never nil once a track is selected; at worst it is the
	// synthetic placeholder.
	Sequence domain.AmplitudeSequence

	// Source names the tier that produced Sequence.
	Source domain.WaveformSource

	// IsPlaceholder is true while Sequence is synthetic (initial paint or
	// terminal fallback).
	IsPlaceholder bool

	// Loading is true while a tier attempt is in flight.
	Loading bool

	// FallbackNote is a human-readable note, set only when the last-resort
	// analysis tier failed and the placeholder was retained.
	FallbackNote string
}

// ResolverConfig tunes the resolver.
type ResolverConfig struct {
	// SegmentCount is the length of every produced sequence.
	SegmentCount int

	// PlaceholderVariance shapes the synthetic envelope.
	PlaceholderVariance float64
}

// DefaultResolverConfig returns the standard resolver tuning.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SegmentCount:        200,
		PlaceholderVariance: DefaultPlaceholderVariance,
	}
}

// Resolver owns the per-track waveform state machine. For each selected
// track it walks the source tiers strictly sequentially (persisted store,
// peaks URL, on-the-fly analysis), short-circuiting on the first success and
// falling back to the synthetic placeholder when everything fails.
//
// Cancellation: every SetTrack bumps a request token and cancels the
// previous walk's context. A tier result is committed only if its token
// still matches, so a stale track's late-arriving data is discarded instead
// of overwriting the current display. No tier is ever attempted twice for
// the same token.
type Resolver struct {
	logger   *slog.Logger
	store    ports.PeaksStore
	loader   peaksLoader
	analyzer audioAnalyzer
	bus      ports.EventBus
	config   ResolverConfig

	mu      sync.RWMutex
	token   uint64
	cancel  context.CancelFunc
	track   domain.Track
	state   State
	seq     domain.AmplitudeSequence
	source  domain.WaveformSource
	note    string
	resolve sync.WaitGroup
}

// NewResolver creates a resolver over the three tiers.
func NewResolver(
	logger *slog.Logger,
	store ports.PeaksStore,
	loader peaksLoader,
	analyzer audioAnalyzer,
	bus ports.EventBus,
	config ResolverConfig,
) *Resolver {
	if config.SegmentCount <= 0 {
		config.SegmentCount = DefaultResolverConfig().SegmentCount
	}
	return &Resolver{
		logger:   logger,
		store:    store,
		loader:   loader,
		analyzer: analyzer,
		bus:      bus,
		config:   config,
	}
}

// SetTrack switches the displayed track. The placeholder is installed
// synchronously, so there is never a flash of empty state, and the tier walk
// starts in the background. Any in-flight walk for the previous track is
// cancelled.
func (r *Resolver) SetTrack(track domain.Track) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.token++
	token := r.token

	r.track = track
	r.seq = Placeholder(track.ID, r.config.SegmentCount, r.config.PlaceholderVariance)
	r.source = domain.SourcePlaceholder
	r.state = StateLoading
	r.note = ""
	r.mu.Unlock()

	r.bus.Publish(domain.NewTrackSelectedEvent(track))
	r.bus.Publish(domain.NewWaveformResolvedEvent(track.ID, domain.SourcePlaceholder, r.config.SegmentCount))

	r.resolve.Add(1)
	go r.walk(ctx, token, track)
}

// Snapshot returns the current view for rendering.
func (r *Resolver) Snapshot() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return View{
		TrackID:       r.track.ID,
		Sequence:      r.seq.Clone(),
		Source:        r.source,
		IsPlaceholder: r.source == domain.SourcePlaceholder,
		Loading:       r.state == StateLoading,
		FallbackNote:  r.note,
	}
}

// Shutdown cancels any in-flight resolution and waits for it to finish.
func (r *Resolver) Shutdown() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.token++ // orphan any in-flight commit
	r.mu.Unlock()
	r.resolve.Wait()
}

// walk attempts each tier in priority order. Tier N+1 never starts before
// tier N's outcome is known.
func (r *Resolver) walk(ctx context.Context, token uint64, track domain.Track) {
	defer r.resolve.Done()

	if seq, ok := r.tryPersisted(ctx, track); ok {
		r.commitResolved(token, track.ID, seq, domain.SourcePersisted)
		return
	}
	if ctx.Err() != nil {
		return
	}

	if seq, ok := r.tryPeaksURL(ctx, track); ok {
		r.commitResolved(token, track.ID, seq, domain.SourceURLCache)
		return
	}
	if ctx.Err() != nil {
		return
	}

	seq, err := r.analyzer.Analyze(ctx, track.AudioURL, r.config.SegmentCount)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Info("audio analysis failed, keeping placeholder",
			slog.String("track_id", track.ID), slog.Any("error", err))
		r.commitFallback(token, track.ID, "waveform is approximate: audio could not be analyzed")
		return
	}

	if r.commitResolved(token, track.ID, seq, domain.SourceAnalyzed) {
		// Write the computed envelope back so the next session resolves this
		// track from the persisted tier. Best-effort.
		if err := r.store.Save(ctx, track.ID, seq); err != nil {
			r.logger.Warn("cannot persist analyzed waveform",
				slog.String("track_id", track.ID), slog.Any("error", err))
		}
	}
}

func (r *Resolver) tryPersisted(ctx context.Context, track domain.Track) (domain.AmplitudeSequence, bool) {
	if track.ID == "" {
		return nil, false
	}
	seq, err := r.store.Load(ctx, track.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceNotFound) && ctx.Err() == nil {
			r.logger.Info("persisted waveform lookup failed",
				slog.String("track_id", track.ID), slog.Any("error", err))
		}
		return nil, false
	}
	if err := validatePeaks(seq); err != nil {
		r.logger.Info("persisted waveform is malformed, falling through",
			slog.String("track_id", track.ID))
		return nil, false
	}
	return normalizePeaks(seq), true
}

func (r *Resolver) tryPeaksURL(ctx context.Context, track domain.Track) (domain.AmplitudeSequence, bool) {
	seq, err := r.loader.LoadPeaks(ctx, track.PeaksURL)
	if err != nil {
		return nil, false
	}
	return seq, true
}

// commitResolved installs a tier result if the request token is still
// current. Returns false when the result is stale.
func (r *Resolver) commitResolved(token uint64, trackID string, seq domain.AmplitudeSequence, source domain.WaveformSource) bool {
	r.mu.Lock()
	if token != r.token {
		r.mu.Unlock()
		r.logger.Debug("discarding stale waveform result",
			slog.String("track_id", trackID), slog.String("source", source.String()))
		return false
	}
	r.seq = seq
	r.source = source
	r.state = StateResolved
	r.note = ""
	length := len(seq)
	r.mu.Unlock()

	r.bus.Publish(domain.NewWaveformResolvedEvent(trackID, source, length))
	return true
}

// commitFallback marks the placeholder as final after the analysis tier
// failed, keeping the synthetic sequence on screen.
func (r *Resolver) commitFallback(token uint64, trackID, note string) {
	r.mu.Lock()
	if token != r.token {
		r.mu.Unlock()
		return
	}
	r.state = StateResolved
	r.note = note
	r.mu.Unlock()

	r.bus.Publish(domain.NewWaveformFallbackEvent(trackID, note))
}
