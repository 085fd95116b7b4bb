package waveform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// maxPeaksPayload bounds how much of a peaks response the loader will read.
// A well-formed payload is a few kilobytes; anything near this limit is junk.
const maxPeaksPayload = 4 << 20

// Loader fetches pre-computed peaks JSON from a content URL, backed by the
// two-tier cache so a URL is fetched at most once per session.
type Loader struct {
	logger *slog.Logger
	cache  *Cache
	client *http.Client
}

// NewLoader creates a loader over the shared cache. A nil client falls back
// to http.DefaultClient.
func NewLoader(logger *slog.Logger, cache *Cache, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		logger: logger,
		cache:  cache,
		client: client,
	}
}

// LoadPeaks resolves an amplitude sequence for a peaks URL: memory cache,
// then persistent cache, then one network fetch. A successful fetch is
// validated and stored into both tiers.
//
// Every failure mode (transport error, bad status, malformed payload)
// collapses into domain.ErrSourceNotFound so the resolver can fall back to
// the next tier; transport details are logged here at info level only.
func (l *Loader) LoadPeaks(ctx context.Context, url string) (domain.AmplitudeSequence, error) {
	if url == "" {
		return nil, domain.ErrSourceNotFound
	}

	key := CacheKey(url)
	if seq, ok := l.cache.Get(key); ok {
		return seq, nil
	}

	values, err := l.fetch(ctx, url)
	if err != nil {
		l.logger.Info("peaks url unavailable",
			slog.String("url", url), slog.Any("reason", err))
		return nil, domain.ErrSourceNotFound
	}
	if err := validatePeaks(values); err != nil {
		l.logger.Info("peaks url returned malformed payload",
			slog.String("url", url), slog.Int("length", len(values)))
		return nil, domain.ErrSourceNotFound
	}

	seq := normalizePeaks(values)
	l.cache.Put(key, seq)
	return seq.Clone(), nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPeaksPayload))
	if err != nil {
		return nil, err
	}

	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}
