package fyne

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdraft/trackdraft/internal/adapter/eventbus"
	"github.com/trackdraft/trackdraft/internal/adapter/repository/memory"
	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/logger"
	"github.com/trackdraft/trackdraft/internal/ports"
	"github.com/trackdraft/trackdraft/internal/service/visualizer"
	"github.com/trackdraft/trackdraft/internal/service/waveform"
	"github.com/trackdraft/trackdraft/internal/testutil"
)

// fakeView records every UI update the presenter issues.
type fakeView struct {
	mu sync.Mutex

	trackTitle    string
	trackArtist   string
	waveforms     int
	placeholder   bool
	playStates    []bool
	notices       []string
	attached      int
	detached      int
	settingsCalls int
}

func (v *fakeView) SetTrackInfo(title, artist string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trackTitle = title
	v.trackArtist = artist
}

func (v *fakeView) SetWaveform(seq domain.AmplitudeSequence, placeholder bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.waveforms++
	v.placeholder = placeholder
}

func (v *fakeView) SetPlayback(domain.PlaybackSnapshot) {}

func (v *fakeView) SetPlayState(playing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playStates = append(v.playStates, playing)
}

func (v *fakeView) AttachVisualizers(*visualizer.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attached++
}

func (v *fakeView) DetachVisualizers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detached++
}

func (v *fakeView) ApplyVisualizerSettings(domain.VisualizerSettings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settingsCalls++
}

func (v *fakeView) ShowNotice(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, message)
}

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		trackTitle:    v.trackTitle,
		trackArtist:   v.trackArtist,
		waveforms:     v.waveforms,
		placeholder:   v.placeholder,
		playStates:    append([]bool(nil), v.playStates...),
		notices:       append([]string(nil), v.notices...),
		attached:      v.attached,
		detached:      v.detached,
		settingsCalls: v.settingsCalls,
	}
}

// fakePlayer implements the playback and sample-tap ports without audio
// hardware.
type fakePlayer struct {
	mu        sync.Mutex
	loaded    []domain.Track
	loadDone  chan struct{}
	playErr   error
	attachErr error
	playing   bool
	paused    int
	stopped   int
	seeks     []time.Duration
	sink      ports.SampleSink
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{loadDone: make(chan struct{}, 4)}
}

func (p *fakePlayer) Load(_ context.Context, track domain.Track) error {
	p.mu.Lock()
	p.loaded = append(p.loaded, track)
	p.mu.Unlock()
	p.loadDone <- struct{}{}
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused++
	p.playing = false
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
	p.playing = false
	return nil
}

func (p *fakePlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, position)
	return nil
}

func (p *fakePlayer) Snapshot() domain.PlaybackSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.PlaybackSnapshot{Playing: p.playing}
}

func (p *fakePlayer) AttachSink(sink ports.SampleSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attachErr != nil {
		return p.attachErr
	}
	p.sink = sink
	return nil
}

func (p *fakePlayer) DetachSink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = nil
}

var (
	_ ports.AudioPlayer  = (*fakePlayer)(nil)
	_ ports.SampleSource = (*fakePlayer)(nil)
)

type presenterFixture struct {
	presenter *Presenter
	resolver  *waveform.Resolver
	player    *fakePlayer
	view      *fakeView
	bus       *eventbus.SyncEventBus
	store     *memory.PeaksStore
}

func newPresenterFixture(t *testing.T) *presenterFixture {
	t.Helper()

	// Registered first so it runs after the shutdown cleanup below.
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	store := memory.NewPeaksStore()

	cache := waveform.NewCache(log, memory.NewKeyValueStore())
	loader := waveform.NewLoader(log, cache, nil)
	analyzer := waveform.NewAnalyzer(log, nil)
	resolver := waveform.NewResolver(log, store, loader, analyzer, bus, waveform.ResolverConfig{SegmentCount: 20})

	player := newFakePlayer()
	analysisCtx := visualizer.NewContext(log, bus)
	settings := visualizer.NewSettingsManager(log, bus, memory.NewSettingsStore(), domain.ProfileFull)

	view := &fakeView{}
	presenter := NewPresenter(log, resolver, player, player, analysisCtx, settings, bus, view)

	t.Cleanup(func() {
		presenter.Shutdown()
		resolver.Shutdown()
	})

	return &presenterFixture{
		presenter: presenter,
		resolver:  resolver,
		player:    player,
		view:      view,
		bus:       bus,
		store:     store,
	}
}

func TestPresenter_AppliesSettingsOnStartup(t *testing.T) {
	f := newPresenterFixture(t)

	assert.Equal(t, 1, f.view.snapshot().settingsCalls)
	_ = f.presenter.CurrentSettings()
}

func TestPresenter_TrackChosenUpdatesViewAndLoadsAudio(t *testing.T) {
	f := newPresenterFixture(t)

	track := domain.Track{ID: "t1", Title: "Night Drive", Artist: "Ada", AudioURL: "/tmp/absent.wav"}
	f.presenter.OnTrackChosen(track)

	select {
	case <-f.player.loadDone:
	case <-time.After(2 * time.Second):
		t.Fatal("audio load never started")
	}

	// Wait out the background tier walk before asserting.
	f.resolver.Shutdown()

	got := f.view.snapshot()
	assert.Equal(t, "Night Drive", got.trackTitle)
	assert.Equal(t, "Ada", got.trackArtist)
	assert.GreaterOrEqual(t, got.waveforms, 1)
}

func TestPresenter_WaveformResolvedRefreshesDisplay(t *testing.T) {
	f := newPresenterFixture(t)

	seq := make(domain.AmplitudeSequence, 20)
	for i := range seq {
		seq[i] = 0.5
	}
	require.NoError(t, f.store.Save(context.Background(), "t1", seq))

	resolved := make(chan domain.WaveformSource, 4)
	f.bus.Subscribe(domain.EventWaveformResolved, func(e domain.Event) {
		resolved <- e.(domain.WaveformResolvedEvent).Source
	})

	f.presenter.OnTrackChosen(domain.Track{ID: "t1", Title: "Persisted"})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case source := <-resolved:
			if source != domain.SourcePersisted {
				continue
			}
		case <-deadline:
			t.Fatal("persisted waveform never resolved")
		}
		break
	}

	assert.Equal(t, domain.SourcePersisted, f.resolver.Snapshot().Source)
	assert.False(t, f.view.snapshot().placeholder)
}

func TestPresenter_PlayActivatesAnalysisOnce(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnPlayClicked()
	assert.Equal(t, 1, f.view.snapshot().attached)

	// Second play toggles pause instead of re-attaching.
	f.bus.Publish(domain.NewPlaybackStateEvent(domain.PlaybackSnapshot{Playing: true}))
	f.presenter.OnPlayClicked()

	f.player.mu.Lock()
	paused := f.player.paused
	f.player.mu.Unlock()
	assert.Equal(t, 1, paused)
	assert.Equal(t, 1, f.view.snapshot().attached)
}

func TestPresenter_PauseSuspendsVisualizers(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnPlayClicked()
	f.bus.Publish(domain.NewPlaybackStateEvent(domain.PlaybackSnapshot{Playing: true}))

	// Pausing cancels the visualizer render loops.
	f.presenter.OnPlayClicked()
	got := f.view.snapshot()
	assert.GreaterOrEqual(t, got.detached, 1)
	assert.Equal(t, 1, got.attached)

	// Resuming reattaches them without re-activating the analysis context.
	f.bus.Publish(domain.NewPlaybackStateEvent(domain.PlaybackSnapshot{Playing: false}))
	f.presenter.OnPlayClicked()
	assert.Equal(t, 2, f.view.snapshot().attached)

	f.player.mu.Lock()
	sinkAttached := f.player.sink != nil
	f.player.mu.Unlock()
	assert.True(t, sinkAttached)
}

func TestPresenter_StopDetachesVisualizers(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnPlayClicked()
	require.GreaterOrEqual(t, f.view.snapshot().attached, 1)

	f.presenter.OnStopClicked()
	assert.GreaterOrEqual(t, f.view.snapshot().detached, 1)
}

func TestPresenter_PlayFailureShowsNotice(t *testing.T) {
	f := newPresenterFixture(t)

	f.player.playErr = domain.ErrNoTrack
	f.presenter.OnPlayClicked()

	got := f.view.snapshot()
	require.Len(t, got.notices, 1)
	assert.Equal(t, 0, got.attached)
}

func TestPresenter_AnalysisFailureDisablesVisualizers(t *testing.T) {
	f := newPresenterFixture(t)

	f.player.attachErr = errors.New("protected stream")
	f.presenter.OnPlayClicked()

	got := f.view.snapshot()
	assert.Equal(t, 0, got.attached)
	assert.GreaterOrEqual(t, got.detached, 1)
	require.NotEmpty(t, got.notices)
}

func TestPresenter_StopResetsPlaybackView(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnStopClicked()

	f.player.mu.Lock()
	stopped := f.player.stopped
	f.player.mu.Unlock()
	assert.Equal(t, 1, stopped)

	got := f.view.snapshot()
	require.NotEmpty(t, got.playStates)
	assert.False(t, got.playStates[len(got.playStates)-1])
}

func TestPresenter_SeekForwardsToPlayer(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.OnSeekRequested(42 * time.Second)

	f.player.mu.Lock()
	defer f.player.mu.Unlock()
	require.Len(t, f.player.seeks, 1)
	assert.Equal(t, 42*time.Second, f.player.seeks[0])
}

func TestPresenter_SettingsRoundTrip(t *testing.T) {
	f := newPresenterFixture(t)

	settings := f.presenter.CurrentSettings()
	settings.FFTBars.BarCount = 24
	f.presenter.OnSettingsApplied(settings)

	assert.Equal(t, 24, f.presenter.CurrentSettings().FFTBars.BarCount)
	assert.Equal(t, 2, f.view.snapshot().settingsCalls)
}

func TestPresenter_PlaybackStateDrivesPlayButton(t *testing.T) {
	f := newPresenterFixture(t)

	f.bus.Publish(domain.NewPlaybackStateEvent(domain.PlaybackSnapshot{Playing: true}))
	f.bus.Publish(domain.NewPlaybackStateEvent(domain.PlaybackSnapshot{Playing: false}))

	got := f.view.snapshot()
	assert.Equal(t, []bool{true, false}, got.playStates)
}

func TestPresenter_ShutdownIsIdempotent(t *testing.T) {
	f := newPresenterFixture(t)

	f.presenter.Shutdown()
	f.presenter.Shutdown()
	assert.GreaterOrEqual(t, f.view.snapshot().detached, 1)
}
