package render

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler delivers periodic frame callbacks. The production implementation
// is ticker-driven; tests pump frames by hand.
type Scheduler interface {
	// Start begins delivering ticks at roughly the given interval and
	// returns a stop function. Stop blocks until no tick is in flight and
	// guarantees no tick is delivered afterwards.
	Start(interval time.Duration, tick func()) (stop func())
}

// TickerScheduler drives ticks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

// Start implements Scheduler.
func (TickerScheduler) Start(interval time.Duration, tick func()) func() {
	if interval <= 0 {
		interval = time.Second / 60
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
		})
		wg.Wait()
	}
}

// ManualScheduler delivers ticks only when Pump is called, for tests.
type ManualScheduler struct {
	mu   sync.Mutex
	tick func()
}

// Start implements Scheduler.
func (s *ManualScheduler) Start(_ time.Duration, tick func()) func() {
	s.mu.Lock()
	s.tick = tick
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.tick = nil
		s.mu.Unlock()
	}
}

// Pump delivers one tick if a loop is attached and reports whether it did.
func (s *ManualScheduler) Pump() bool {
	s.mu.Lock()
	tick := s.tick
	s.mu.Unlock()

	if tick == nil {
		return false
	}
	tick()
	return true
}

// Attached reports whether a loop currently listens for ticks.
func (s *ManualScheduler) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick != nil
}

// Loop is an explicit start/stop render loop with a frame-rate cap. One loop
// belongs to exactly one renderer; the owner starts it when animation is
// needed and stops it on disable, teardown, or when playback goes idle.
//
// A frame callback that returns an error, or panics, is logged and the loop
// keeps running: a single bad frame must not kill the visualizer.
type Loop struct {
	logger *slog.Logger
	sched  Scheduler
	frame  func() error

	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	stop func()
	last time.Time
}

// NewLoop creates a loop that invokes frame at most fps times per second
// once started. fps <= 0 selects 60.
func NewLoop(logger *slog.Logger, sched Scheduler, fps int, frame func() error) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{
		logger:   logger,
		sched:    sched,
		frame:    frame,
		interval: time.Second / time.Duration(fps),
		now:      time.Now,
	}
}

// Start begins frame delivery. Starting a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.last = time.Time{}
	l.stop = l.sched.Start(l.interval, l.tick)
}

// Stop cancels frame delivery and waits for any in-flight frame.
// Stopping a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop := l.stop
	l.stop = nil
	l.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}

func (l *Loop) tick() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("render frame panicked", slog.Any("panic", r))
		}
	}()

	// Frame-rate cap independent of the scheduler's cadence: ticks arriving
	// early are skipped. The 10% slack absorbs ticker jitter.
	now := l.now()
	l.mu.Lock()
	if !l.last.IsZero() && now.Sub(l.last) < l.interval*9/10 {
		l.mu.Unlock()
		return
	}
	l.last = now
	l.mu.Unlock()

	if err := l.frame(); err != nil {
		l.logger.Warn("render frame failed", slog.Any("error", err))
	}
}
