package retry

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand returns its values in order, reduced modulo n.
type seqRand struct {
	vals  []int64
	calls []int64
}

func (r *seqRand) Int64N(n int64) int64 {
	r.calls = append(r.calls, n)
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v % n
}

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) { s.slept = append(s.slept, d) }

func TestDefault(t *testing.T) {
	b := Default()
	assert.Equal(t, time.Second, b.Delay())
	assert.Equal(t, 1.2, b.factor)
	assert.Equal(t, 800*time.Millisecond, b.jitter)
}

func TestNew_StoresValuesVerbatim(t *testing.T) {
	b := New(-time.Second, -3, 0)
	assert.Equal(t, -time.Second, b.Delay())
	assert.Equal(t, -3.0, b.factor)
	assert.Zero(t, b.jitter)
}

func TestWaitAndAdvance_SleepsCurrentDelayThenGrows(t *testing.T) {
	rec := &sleepRecorder{}
	r := &seqRand{vals: []int64{250, 10}}
	b := New(100*time.Millisecond, 2, 500, WithRand(r), WithSleep(rec.sleep))

	b.WaitAndAdvance()
	assert.Equal(t, 200*time.Millisecond+250, b.Delay())

	b.WaitAndAdvance()
	assert.Equal(t, 400*time.Millisecond+500+10, b.Delay())

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200*time.Millisecond + 250}, rec.slept)
	assert.Equal(t, []int64{500, 500}, r.calls, "jitter must be drawn below the bound")
}

func TestWaitAndAdvance_ZeroJitterSkipsRand(t *testing.T) {
	rec := &sleepRecorder{}
	r := &seqRand{}
	b := New(time.Second, 1.5, 0, WithRand(r), WithSleep(rec.sleep))

	b.WaitAndAdvance()
	b.WaitAndAdvance()

	assert.Equal(t, 2250*time.Millisecond, b.Delay())
	assert.Empty(t, r.calls)
}

func TestWaitAndAdvance_StaysWithinBounds(t *testing.T) {
	const (
		factor = 1.2
		jitter = 800 * time.Millisecond
	)
	b := New(time.Second, factor, jitter,
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithSleep(func(time.Duration) {}),
	)

	for i := 0; i < 50; i++ {
		prev := b.Delay()
		b.WaitAndAdvance()
		low := time.Duration(float64(prev) * factor)
		require.GreaterOrEqual(t, b.Delay(), low, "step %d", i)
		require.Less(t, b.Delay(), low+jitter, "step %d", i)
	}
}

func TestWaitAndAdvance_NeverNegative(t *testing.T) {
	b := New(time.Second, -2, 0, WithSleep(func(time.Duration) {}))
	b.WaitAndAdvance()
	assert.Zero(t, b.Delay())
}

func TestWaitAndAdvance_ZeroDelayStaysZero(t *testing.T) {
	rec := &sleepRecorder{}
	b := New(0, 2, 0, WithSleep(rec.sleep))
	for i := 0; i < 3; i++ {
		b.WaitAndAdvance()
	}
	assert.Zero(t, b.Delay())
	assert.Equal(t, []time.Duration{0, 0, 0}, rec.slept)
}

func TestWaitAndAdvance_SaturatesAtMaxDuration(t *testing.T) {
	r := &seqRand{vals: []int64{math.MaxInt64 - 1}}
	b := New(math.MaxInt64/2+1, 4, math.MaxInt64, WithRand(r), WithSleep(func(time.Duration) {}))
	b.WaitAndAdvance()
	assert.Equal(t, time.Duration(math.MaxInt64), b.Delay())
}

func TestWaitAndAdvance_DefaultSleepBlocks(t *testing.T) {
	b := New(20*time.Millisecond, 1, 0)
	start := time.Now()
	b.WaitAndAdvance()
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
