package visualizer

import (
	"log/slog"
	"sync"

	"github.com/trackdraft/trackdraft/internal/domain"
	"github.com/trackdraft/trackdraft/internal/ports"
)

// Context is the shared live-analysis graph for one audio player. It is
// created eagerly but stays inert until Activate attaches it to the player's
// sample tap, which happens on the first user-driven playback interaction
// and never before.
//
// One context feeds any number of analyser taps; visualizers never share an
// analyser, so reconfiguring one (window size, max frequency) cannot change
// another's readings.
//
// If activation fails (the engine cannot expose decoded samples for the
// current resource), the context enters a terminal failed state: existing
// taps keep returning silence, new taps are refused, and a single
// AnalysisContextFailedEvent is published for the UI notice.
type Context struct {
	logger *slog.Logger
	bus    ports.EventBus

	mu       sync.Mutex
	source   ports.SampleSource
	taps     map[*Analyser]struct{}
	active   bool
	failed   error
	notified bool
}

// NewContext creates an inactive analysis context.
func NewContext(logger *slog.Logger, bus ports.EventBus) *Context {
	return &Context{
		logger: logger,
		bus:    bus,
		taps:   make(map[*Analyser]struct{}),
	}
}

// Activate lazily attaches the context to the player's sample tap. Calling
// it again while active is a no-op; calling it after a failure returns the
// stored error without retrying.
func (c *Context) Activate(source ports.SampleSource) error {
	c.mu.Lock()
	if c.failed != nil {
		err := c.failed
		c.mu.Unlock()
		return err
	}
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// Attach outside the lock: the engine may call Consume synchronously.
	if err := source.AttachSink(c); err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.source = source
	c.active = true
	c.mu.Unlock()

	c.logger.Debug("analysis context activated")
	return nil
}

// Consume implements ports.SampleSink, fanning every decoded frame out to
// all taps. Called from the audio render path.
func (c *Context) Consume(samples [][2]float64, sampleRate int) {
	c.mu.Lock()
	taps := make([]*Analyser, 0, len(c.taps))
	for tap := range c.taps {
		taps = append(taps, tap)
	}
	c.mu.Unlock()

	for _, tap := range taps {
		tap.push(samples, sampleRate)
	}
}

// NewTap creates an analyser fed by this context. fftSize <= 0 selects
// DefaultFFTSize. Refused once the context has failed.
func (c *Context) NewTap(fftSize int) (*Analyser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed != nil {
		return nil, c.failed
	}
	tap := newAnalyser(fftSize)
	c.taps[tap] = struct{}{}
	return tap, nil
}

// CloseTap detaches and closes an analyser. Closing a tap never affects the
// other taps or the context itself.
func (c *Context) CloseTap(tap *Analyser) {
	if tap == nil {
		return
	}
	c.mu.Lock()
	delete(c.taps, tap)
	c.mu.Unlock()
	tap.close()
}

// Err returns the terminal failure, or nil while the context is usable.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// Release detaches from the sample source and closes all taps.
func (c *Context) Release() {
	c.mu.Lock()
	source := c.source
	c.source = nil
	c.active = false
	taps := make([]*Analyser, 0, len(c.taps))
	for tap := range c.taps {
		taps = append(taps, tap)
	}
	c.taps = make(map[*Analyser]struct{})
	c.mu.Unlock()

	if source != nil {
		source.DetachSink()
	}
	for _, tap := range taps {
		tap.close()
	}
}

func (c *Context) fail(err error) error {
	if _, ok := err.(*domain.AnalysisContextError); !ok {
		err = domain.NewAnalysisContextError("cannot attach to audio engine", err)
	}

	c.mu.Lock()
	c.failed = err
	alreadyNotified := c.notified
	c.notified = true
	c.mu.Unlock()

	c.logger.Warn("analysis context unavailable, visualizers disabled", slog.Any("error", err))
	if !alreadyNotified {
		c.bus.Publish(domain.NewAnalysisContextFailedEvent(err))
	}
	return err
}
