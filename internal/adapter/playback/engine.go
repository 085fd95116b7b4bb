// Package playback provides the beep-based audio playback adapter.
// It implements ports.AudioPlayer and ports.SampleSource: decoded frames can
// be tapped by the visualizer analysis context while they travel to the
// speaker.
package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// speakerBuffer is the speaker's internal buffer length.
const speakerBuffer = time.Second / 10

// Meta is the display metadata read from the loaded resource's tags.
type Meta struct {
	Title  string
	Artist string
	Album  string
}

// Engine plays one track at a time through the system speaker.
//
// Thread-safety: all exported methods may be called from any goroutine.
// State shared with the audio render goroutine is accessed under
// speaker.Lock.
//
// Lock ordering: the audio goroutine streams while holding the speaker
// package's internal mutex, and the stream chain reads the sample sink.
// The sink therefore lives in an atomic slot, never behind e.mu, and no
// speaker call runs while e.mu is held.
type Engine struct {
	logger *slog.Logger
	bus    ports.EventBus
	client *http.Client

	// sink is read lock-free on the audio path.
	sink atomic.Pointer[sinkSlot]

	// loadMu serializes whole Load calls; the audio path never takes it.
	loadMu sync.Mutex

	mu           sync.Mutex
	speakerReady bool
	speakerRate  beep.SampleRate
	streamer     beep.StreamSeekCloser
	format       beep.Format
	ctrl         *beep.Ctrl
	track        domain.Track
	meta         Meta
	buffering    bool
	loaded       bool
}

// sinkSlot boxes the sink interface for atomic storage.
type sinkSlot struct {
	sink ports.SampleSink
}

// NewEngine creates a playback engine. A nil client falls back to
// http.DefaultClient for remote resources.
func NewEngine(logger *slog.Logger, bus ports.EventBus, client *http.Client) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{
		logger: logger,
		bus:    bus,
		client: client,
	}
}

// Load fetches and decodes a track's audio resource, replacing any
// previously loaded track. The engine reports Buffering until the resource
// is ready.
func (e *Engine) Load(ctx context.Context, track domain.Track) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.setBuffering(true)
	defer e.setBuffering(false)

	raw, name, err := e.fetch(ctx, track.AudioURL)
	if err != nil {
		return domain.NewDecodeError("fetch", track.AudioURL, "cannot fetch audio resource", err)
	}

	meta := readMeta(raw)

	streamer, format, err := openDecoder(raw, name)
	if err != nil {
		return domain.NewDecodeError("decode", track.AudioURL, "cannot decode audio resource", err)
	}

	// Detach the previous track first. Speaker calls run outside e.mu per
	// the engine's lock ordering.
	e.mu.Lock()
	previous := e.streamer
	e.streamer = nil
	e.ctrl = nil
	e.loaded = false
	ready := e.speakerReady
	rate := e.speakerRate
	e.mu.Unlock()

	if previous != nil {
		speaker.Clear()
		_ = previous.Close()
	}

	if !ready {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(speakerBuffer)); err != nil {
			_ = streamer.Close()
			return domain.NewDecodeError("output", track.AudioURL, "cannot initialize speaker", err)
		}
		rate = format.SampleRate
	}

	// The speaker keeps its first sample rate; later tracks resample to it.
	var source beep.Streamer = streamer
	if format.SampleRate != rate {
		source = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	tapped := &tapStreamer{engine: e, s: source, rate: int(rate)}
	ctrl := &beep.Ctrl{Streamer: tapped, Paused: true}

	e.mu.Lock()
	e.speakerReady = true
	e.speakerRate = rate
	e.streamer = streamer
	e.format = format
	e.ctrl = ctrl
	e.track = track
	e.meta = meta
	e.loaded = true
	e.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		e.logger.Debug("track finished", slog.String("track_id", track.ID))
	})))

	e.logger.Debug("track loaded",
		slog.String("track_id", track.ID),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.String("title", meta.Title))
	return nil
}

// Play starts or resumes playback.
func (e *Engine) Play() error {
	e.mu.Lock()
	ctrl := e.ctrl
	e.mu.Unlock()
	if ctrl == nil {
		return domain.ErrNoTrack
	}

	speaker.Lock()
	ctrl.Paused = false
	speaker.Unlock()

	e.publishState()
	return nil
}

// Pause pauses playback, keeping the position.
func (e *Engine) Pause() error {
	e.mu.Lock()
	ctrl := e.ctrl
	e.mu.Unlock()
	if ctrl == nil {
		return domain.ErrNoTrack
	}

	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()

	e.publishState()
	return nil
}

// Stop stops playback and releases the loaded resource.
func (e *Engine) Stop() error {
	e.mu.Lock()
	streamer := e.streamer
	e.streamer = nil
	e.ctrl = nil
	e.loaded = false
	e.mu.Unlock()

	if streamer == nil {
		return nil
	}
	speaker.Clear()
	return streamer.Close()
}

// Seek sets the playback position, clamped to [0, Duration].
func (e *Engine) Seek(position time.Duration) error {
	e.mu.Lock()
	streamer := e.streamer
	format := e.format
	e.mu.Unlock()
	if streamer == nil {
		return domain.ErrNoTrack
	}

	if position < 0 {
		position = 0
	}
	n := format.SampleRate.N(position)

	speaker.Lock()
	if n > streamer.Len() {
		n = streamer.Len()
	}
	err := streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return err
	}

	// Paused tracks repaint from state events, so push the new position.
	e.publishState()
	return nil
}

// Snapshot returns a value copy of the current playback state.
func (e *Engine) Snapshot() domain.PlaybackSnapshot {
	e.mu.Lock()
	streamer := e.streamer
	format := e.format
	ctrl := e.ctrl
	buffering := e.buffering
	e.mu.Unlock()

	snap := domain.PlaybackSnapshot{Buffering: buffering}
	if streamer == nil {
		return snap
	}

	speaker.Lock()
	pos := streamer.Position()
	length := streamer.Len()
	paused := ctrl.Paused
	speaker.Unlock()

	snap.Position = format.SampleRate.D(pos)
	snap.Duration = format.SampleRate.D(length)
	snap.Playing = !paused && pos < length
	return snap
}

// Metadata returns the tags read from the loaded resource.
func (e *Engine) Metadata() Meta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}

// AttachSink routes decoded frames to the sink. Fails with an
// *domain.AnalysisContextError when no tappable audio is loaded.
func (e *Engine) AttachSink(sink ports.SampleSink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return domain.NewAnalysisContextError("no audio loaded", domain.ErrNotInitialized)
	}
	e.sink.Store(&sinkSlot{sink: sink})
	return nil
}

// DetachSink removes the attached sink, if any.
func (e *Engine) DetachSink() {
	e.sink.Store(nil)
}

// currentSink is called from the audio goroutine under the speaker mutex
// and must not touch e.mu.
func (e *Engine) currentSink() ports.SampleSink {
	if slot := e.sink.Load(); slot != nil {
		return slot.sink
	}
	return nil
}

func (e *Engine) setBuffering(buffering bool) {
	e.mu.Lock()
	e.buffering = buffering
	e.mu.Unlock()
	e.publishState()
}

func (e *Engine) publishState() {
	if e.bus != nil {
		e.bus.Publish(domain.NewPlaybackStateEvent(e.Snapshot()))
	}
}

func (e *Engine) fetch(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		return raw, path.Base(req.URL.Path), nil
	}

	raw, err := os.ReadFile(url)
	if err != nil {
		return nil, "", err
	}
	return raw, path.Base(url), nil
}

func readMeta(raw []byte) Meta {
	m, err := tag.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		return Meta{}
	}
	return Meta{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}
}

func openDecoder(raw []byte, name string) (beep.StreamSeekCloser, beep.Format, error) {
	src := &byteSource{Reader: bytes.NewReader(raw)}
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return mp3.Decode(src)
	case ".wav", ".wave":
		return wav.Decode(src)
	case ".flac":
		return flac.Decode(src)
	case ".ogg", ".oga":
		return vorbis.Decode(src)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", path.Ext(name))
	}
}

// byteSource adapts an in-memory buffer to every reader shape the beep
// decoders ask for.
type byteSource struct {
	*bytes.Reader
}

// Close implements io.Closer; the backing buffer needs no release.
func (*byteSource) Close() error {
	return nil
}

// tapStreamer forwards every streamed frame to the attached sample sink on
// its way to the speaker.
type tapStreamer struct {
	engine *Engine
	s      beep.Streamer
	rate   int
}

// Stream implements beep.Streamer.
func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	if n > 0 {
		if sink := t.engine.currentSink(); sink != nil {
			sink.Consume(samples[:n], t.rate)
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (t *tapStreamer) Err() error {
	return t.s.Err()
}

// Verify interface implementations at compile time.
var (
	_ ports.AudioPlayer  = (*Engine)(nil)
	_ ports.SampleSource = (*Engine)(nil)
	_ beep.Streamer      = (*tapStreamer)(nil)
)
