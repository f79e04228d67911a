package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := New(func() { calls.Add(1) }, 40*time.Millisecond)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
	assert.Equal(t, uint64(1), d.Fired())
}

func TestDebouncer_SeparateBurstsRunSeparately(t *testing.T) {
	var calls atomic.Int32
	d := New(func() { calls.Add(1) }, 20*time.Millisecond)
	defer d.Stop()

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := New(func() { calls.Add(1) }, 20*time.Millisecond)

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.True(t, d.Stopped())
	assert.False(t, d.Pending())
}

func TestDebouncer_StopAfterTimerFiredBeforeScheduled(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var queued []func()

	// The scheduler holds the call, as an event loop with a busy queue would.
	d := New(func() { calls.Add(1) }, 5*time.Millisecond, WithScheduler(func(f func()) {
		mu.Lock()
		queued = append(queued, f)
		mu.Unlock()
	}))

	d.Trigger()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(queued) == 1
	}, time.Second, time.Millisecond)

	d.Stop()
	mu.Lock()
	queued[0]()
	mu.Unlock()

	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_StaleGenerationIgnored(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var queued []func()

	d := New(func() { calls.Add(1) }, 5*time.Millisecond, WithScheduler(func(f func()) {
		mu.Lock()
		queued = append(queued, f)
		mu.Unlock()
	}))
	defer d.Stop()

	d.Trigger()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(queued) == 1
	}, time.Second, time.Millisecond)

	// A new trigger arrives before the queued call runs.
	d.Trigger()
	mu.Lock()
	queued[0]()
	mu.Unlock()
	assert.Equal(t, int32(0), calls.Load())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(queued) == 2
	}, time.Second, time.Millisecond)
	mu.Lock()
	queued[1]()
	mu.Unlock()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_DelayFuncReadPerTrigger(t *testing.T) {
	var delay atomic.Int64
	delay.Store(int64(time.Hour))

	var calls atomic.Int32
	d := New(func() { calls.Add(1) }, 0, WithDelayFunc(func() time.Duration {
		return time.Duration(delay.Load())
	}))
	defer d.Stop()

	d.Trigger()
	delay.Store(int64(10 * time.Millisecond))
	d.Trigger()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Flush(t *testing.T) {
	var calls atomic.Int32
	d := New(func() { calls.Add(1) }, time.Hour)
	defer d.Stop()

	assert.False(t, d.Flush())
	d.Trigger()
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
}
