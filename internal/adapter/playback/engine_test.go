package playback

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopxl/beep/v2"

	"github.com/trackdraft/trackdraft/internal/adapter/eventbus"
	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/logger"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// encodeWAV builds a minimal 16-bit mono PCM file around the samples.
func encodeWAV(samples []float64, sampleRate int) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&data, binary.LittleEndian, int16(s*32767))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func newTestEngine() *Engine {
	return NewEngine(logger.NewTestLogger(), eventbus.NewSyncEventBus(logger.NewTestLogger()), nil)
}

func TestOpenDecoder_WAV(t *testing.T) {
	raw := encodeWAV([]float64{0, 0.5, -0.5, 0.25}, 44100)

	streamer, format, err := openDecoder(raw, "clip.wav")
	require.NoError(t, err)
	defer func() { _ = streamer.Close() }()

	assert.EqualValues(t, 44100, format.SampleRate)
	assert.Equal(t, 4, streamer.Len())
}

func TestOpenDecoder_UnsupportedFormat(t *testing.T) {
	_, _, err := openDecoder([]byte("plain text"), "notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestOpenDecoder_ExtensionCaseInsensitive(t *testing.T) {
	raw := encodeWAV([]float64{0, 0}, 8000)
	streamer, _, err := openDecoder(raw, "CLIP.WAV")
	require.NoError(t, err)
	_ = streamer.Close()
}

func TestReadMeta_GarbageYieldsEmpty(t *testing.T) {
	assert.Equal(t, Meta{}, readMeta([]byte("definitely not audio")))
	assert.Equal(t, Meta{}, readMeta(nil))
}

func TestFetch_LocalFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(file, []byte("payload"), 0o644))

	e := newTestEngine()
	raw, name, err := e.fetch(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), raw)
	assert.Equal(t, "clip.wav", name)
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote payload"))
	}))
	defer srv.Close()

	e := newTestEngine()
	raw, name, err := e.fetch(context.Background(), srv.URL+"/tracks/mix.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote payload"), raw)
	assert.Equal(t, "mix.mp3", name)
}

func TestFetch_HTTPBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := newTestEngine()
	_, _, err := e.fetch(context.Background(), srv.URL+"/gone.mp3")
	assert.Error(t, err)
}

func TestFetch_MissingFile(t *testing.T) {
	e := newTestEngine()
	_, _, err := e.fetch(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))
	assert.Error(t, err)
}

func TestLoad_FetchFailureReportsDecodeError(t *testing.T) {
	e := newTestEngine()
	track := domain.Track{ID: "t", AudioURL: filepath.Join(t.TempDir(), "absent.wav")}

	err := e.Load(context.Background(), track)
	require.Error(t, err)

	var decErr *domain.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "fetch", decErr.Op)
	assert.False(t, e.Snapshot().Buffering)
}

func TestEngine_ControlsWithoutTrack(t *testing.T) {
	e := newTestEngine()

	assert.ErrorIs(t, e.Play(), domain.ErrNoTrack)
	assert.ErrorIs(t, e.Pause(), domain.ErrNoTrack)
	assert.ErrorIs(t, e.Seek(time.Second), domain.ErrNoTrack)
	assert.NoError(t, e.Stop())

	snap := e.Snapshot()
	assert.False(t, snap.Playing)
	assert.Equal(t, time.Duration(0), snap.Duration)
}

func TestEngine_AttachSinkRequiresLoadedTrack(t *testing.T) {
	e := newTestEngine()

	err := e.AttachSink(&recordingSink{})
	require.Error(t, err)

	var ctxErr *domain.AnalysisContextError
	assert.ErrorAs(t, err, &ctxErr)
}

type recordingSink struct {
	frames [][2]float64
	rate   int
}

func (s *recordingSink) Consume(samples [][2]float64, sampleRate int) {
	s.frames = append(s.frames, samples...)
	s.rate = sampleRate
}

type staticStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *staticStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *staticStreamer) Err() error { return nil }

func TestTapStreamer_ForwardsFramesToSink(t *testing.T) {
	e := newTestEngine()
	e.loaded = true

	sink := &recordingSink{}
	require.NoError(t, e.AttachSink(sink))

	frames := [][2]float64{{0.1, 0.1}, {0.2, 0.2}, {0.3, 0.3}}
	tap := &tapStreamer{engine: e, s: &staticStreamer{frames: frames}, rate: 48000}

	buf := make([][2]float64, 2)
	n, ok := tap.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 2, n)

	n, ok = tap.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 1, n)

	assert.Equal(t, frames, sink.frames)
	assert.Equal(t, 48000, sink.rate)

	// Exhausted source: nothing more reaches the sink.
	_, ok = tap.Stream(buf)
	assert.False(t, ok)
	assert.Len(t, sink.frames, 3)
}

func TestTapStreamer_NoSinkIsSilent(t *testing.T) {
	e := newTestEngine()
	tap := &tapStreamer{engine: e, s: &staticStreamer{frames: [][2]float64{{1, 1}}}, rate: 44100}

	buf := make([][2]float64, 4)
	n, ok := tap.Stream(buf)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestTapStreamer_SinkReadIgnoresEngineLock(t *testing.T) {
	e := newTestEngine()
	e.loaded = true

	sink := &recordingSink{}
	require.NoError(t, e.AttachSink(sink))

	tap := &tapStreamer{engine: e, s: &staticStreamer{frames: [][2]float64{{0.5, 0.5}}}, rate: 44100}

	// The audio goroutine reads the sink while Load or Stop holds the
	// engine mutex; the read must complete regardless.
	e.mu.Lock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([][2]float64, 1)
		_, _ = tap.Stream(buf)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.mu.Unlock()
		t.Fatal("sample tap blocked on the engine mutex")
	}
	e.mu.Unlock()

	assert.Len(t, sink.frames, 1)
}

// fakeSeekCloser stands in for a decoded stream without audio hardware.
type fakeSeekCloser struct {
	closed bool
}

func (s *fakeSeekCloser) Stream([][2]float64) (int, bool) { return 0, false }
func (s *fakeSeekCloser) Err() error                      { return nil }
func (s *fakeSeekCloser) Len() int                        { return 0 }
func (s *fakeSeekCloser) Position() int                   { return 0 }
func (s *fakeSeekCloser) Seek(int) error                  { return nil }
func (s *fakeSeekCloser) Close() error                    { s.closed = true; return nil }

func TestStop_ReleasesLoadedState(t *testing.T) {
	e := newTestEngine()
	streamer := &fakeSeekCloser{}

	e.mu.Lock()
	e.streamer = streamer
	e.ctrl = &beep.Ctrl{}
	e.loaded = true
	e.mu.Unlock()

	require.NoError(t, e.Stop())
	assert.True(t, streamer.closed)
	assert.ErrorIs(t, e.Play(), domain.ErrNoTrack)
	assert.NoError(t, e.Stop())
}

func TestTapStreamer_DetachStopsForwarding(t *testing.T) {
	e := newTestEngine()
	e.loaded = true

	sink := &recordingSink{}
	require.NoError(t, e.AttachSink(sink))

	frames := [][2]float64{{0.1, 0.1}, {0.2, 0.2}}
	tap := &tapStreamer{engine: e, s: &staticStreamer{frames: frames}, rate: 44100}

	buf := make([][2]float64, 1)
	_, _ = tap.Stream(buf)
	e.DetachSink()
	_, _ = tap.Stream(buf)

	assert.Len(t, sink.frames, 1)
}

// Compile-time checks for the test fakes.
var (
	_ ports.SampleSink      = (*recordingSink)(nil)
	_ beep.StreamSeekCloser = (*fakeSeekCloser)(nil)
)
