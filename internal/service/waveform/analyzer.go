package waveform

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

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// analyzeChunk is the streaming granularity while draining a decoder.
const analyzeChunk = 512

// Analyzer computes a fixed-length amplitude envelope by fully decoding an
// audio resource. It is the last-resort waveform tier, used only when no
// pre-computed peaks exist.
type Analyzer struct {
	logger *slog.Logger
	client *http.Client
}

// NewAnalyzer creates an analyzer. A nil client falls back to
// http.DefaultClient for remote resources.
func NewAnalyzer(logger *slog.Logger, client *http.Client) *Analyzer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Analyzer{
		logger: logger,
		client: client,
	}
}

// Analyze decodes the resource at url and reduces it to exactly segmentCount
// amplitude values in [0, 1], one per equal-width window of the decoded
// sample buffer. Each window is reduced to its peak absolute value, which
// keeps transients visible at waveform-summary resolution. The result is
// deterministic for a given resource and segment count.
//
// Failures of any step return a *domain.DecodeError; the resolver recovers
// by substituting a synthetic placeholder.
func (a *Analyzer) Analyze(ctx context.Context, url string, segmentCount int) (domain.AmplitudeSequence, error) {
	if segmentCount <= 0 {
		return nil, domain.NewDecodeError("decode", url, "segment count must be positive", nil)
	}

	raw, name, err := a.fetch(ctx, url)
	if err != nil {
		return nil, domain.NewDecodeError("fetch", url, "cannot fetch audio resource", err)
	}

	mono, err := decodeMono(raw, name)
	if err != nil {
		return nil, domain.NewDecodeError("decode", url, "cannot decode audio resource", err)
	}
	if len(mono) == 0 {
		return nil, domain.NewDecodeError("decode", url, "resource decoded to zero samples", nil)
	}

	a.logger.Debug("audio analysis complete",
		slog.String("url", url),
		slog.Int("samples", len(mono)),
		slog.Int("segments", segmentCount))

	return envelope(mono, segmentCount), nil
}

// fetch loads the full resource into memory: decode-based analysis needs
// seekable bytes and tracks shared for review are minutes, not hours.
func (a *Analyzer) fetch(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := a.client.Do(req)
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

// decodeMono decodes the raw bytes with the matching beep decoder and mixes
// the stream down to mono.
func decodeMono(raw []byte, name string) ([]float64, error) {
	streamer, _, err := openDecoder(raw, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = streamer.Close()
	}()

	var mono []float64
	buf := make([][2]float64, analyzeChunk)
	for {
		n, ok := streamer.Stream(buf)
		for i := range n {
			mono = append(mono, 0.5*(buf[i][0]+buf[i][1]))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, err
	}
	return mono, nil
}

func openDecoder(raw []byte, name string) (beep.StreamSeekCloser, beep.Format, error) {
	src := newByteSource(raw)
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
// decoders ask for (Reader, Seeker, Closer).
type byteSource struct {
	*bytes.Reader
}

func newByteSource(raw []byte) *byteSource {
	return &byteSource{Reader: bytes.NewReader(raw)}
}

// Close implements io.Closer; the backing buffer needs no release.
func (*byteSource) Close() error {
	return nil
}

// envelope reduces the mono sample buffer to exactly segmentCount values,
// taking the peak absolute value of each equal-width window.
func envelope(mono []float64, segmentCount int) domain.AmplitudeSequence {
	out := make(domain.AmplitudeSequence, segmentCount)
	n := len(mono)

	for i := range segmentCount {
		start := i * n / segmentCount
		end := (i + 1) * n / segmentCount
		if end <= start {
			// More segments than samples; reuse the nearest sample.
			if start >= n {
				start = n - 1
			}
			end = start + 1
		}

		var peak float64
		for _, s := range mono[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		if peak > 1 {
			peak = 1
		}
		out[i] = peak
	}
	return out
}
