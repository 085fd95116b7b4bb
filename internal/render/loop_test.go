package render

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdraft/trackdraft/internal/logger"
	"github.com/trackdraft/trackdraft/internal/testutil"
)

func TestLoop_ManualPump(t *testing.T) {
	sched := &ManualScheduler{}
	var frames atomic.Int64
	loop := NewLoop(logger.NewTestLogger(), sched, 60, func() error {
		frames.Add(1)
		return nil
	})

	// No ticks flow before Start.
	assert.False(t, sched.Pump())

	loop.Start()
	require.True(t, loop.Running())
	assert.True(t, sched.Pump())
	assert.Equal(t, int64(1), frames.Load())

	loop.Stop()
	assert.False(t, loop.Running())
	assert.False(t, sched.Pump())
	assert.Equal(t, int64(1), frames.Load())
}

func TestLoop_FrameErrorKeepsRunning(t *testing.T) {
	sched := &ManualScheduler{}
	var frames atomic.Int64
	loop := NewLoop(logger.NewTestLogger(), sched, 60, func() error {
		frames.Add(1)
		return errors.New("stale frame")
	})
	loop.now = neverThrottled()

	loop.Start()
	defer loop.Stop()

	sched.Pump()
	sched.Pump()
	assert.Equal(t, int64(2), frames.Load())
	assert.True(t, loop.Running())
}

func TestLoop_FramePanicKeepsRunning(t *testing.T) {
	sched := &ManualScheduler{}
	var frames atomic.Int64
	loop := NewLoop(logger.NewTestLogger(), sched, 60, func() error {
		frames.Add(1)
		panic("renderer bug")
	})
	loop.now = neverThrottled()

	loop.Start()
	defer loop.Stop()

	sched.Pump()
	sched.Pump()
	assert.Equal(t, int64(2), frames.Load())
}

func TestLoop_StartIdempotent(t *testing.T) {
	sched := &ManualScheduler{}
	loop := NewLoop(logger.NewTestLogger(), sched, 60, func() error { return nil })

	loop.Start()
	loop.Start()
	assert.True(t, loop.Running())

	loop.Stop()
	loop.Stop()
	assert.False(t, loop.Running())
	assert.False(t, sched.Attached())
}

func TestLoop_CapsFrameRate(t *testing.T) {
	sched := &ManualScheduler{}
	var frames atomic.Int64
	loop := NewLoop(logger.NewTestLogger(), sched, 10, func() error {
		frames.Add(1)
		return nil
	})

	// Fake clock: ticks arrive every 10ms against a 100ms frame budget.
	now := time.Unix(0, 0)
	loop.now = func() time.Time {
		now = now.Add(10 * time.Millisecond)
		return now
	}

	loop.Start()
	defer loop.Stop()

	for range 20 {
		sched.Pump()
	}

	// 20 ticks over 200ms of fake time fit at most 3 frames at 10 fps.
	assert.LessOrEqual(t, frames.Load(), int64(3))
	assert.GreaterOrEqual(t, frames.Load(), int64(2))
}

func TestLoop_TickerSchedulerDelivers(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	frames := make(chan struct{}, 8)
	loop := NewLoop(logger.NewTestLogger(), TickerScheduler{}, 200, func() error {
		select {
		case frames <- struct{}{}:
		default:
		}
		return nil
	})

	loop.Start()

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
	loop.Stop()
}

// neverThrottled returns a clock that jumps far enough between reads that
// the frame-rate cap never skips a tick.
func neverThrottled() func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(time.Hour)
		return now
	}
}
