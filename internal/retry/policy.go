// Package retry runs fallible operations under an exponential backoff
// policy with additive random jitter.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	DefaultInitialDelay = 1 * time.Second
	DefaultFactor       = 1.2
	DefaultJitter       = 800 * time.Millisecond
)

// Rand is the source of jitter. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

type Option func(*Backoff)

// WithRand replaces the jitter source.
func WithRand(r Rand) Option {
	return func(b *Backoff) { b.rand = r }
}

// WithSleep replaces the function used to block between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *Backoff) { b.sleep = sleep }
}

// Backoff tracks the delay of one retry session. It is not safe for
// concurrent use and must not be shared between sessions.
type Backoff struct {
	delay  time.Duration
	factor float64
	jitter time.Duration

	rand  Rand
	sleep func(time.Duration)
}

// New returns a policy starting at initialDelay. The values are stored as
// given: a factor <= 1 keeps the delay flat or shrinking.
func New(initialDelay time.Duration, factor float64, jitter time.Duration, opts ...Option) *Backoff {
	b := &Backoff{
		delay:  initialDelay,
		factor: factor,
		jitter: jitter,
		rand:   globalRand{},
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Default returns a policy starting at 1s, growing by 1.2 with up to 800ms
// of jitter per step.
func Default(opts ...Option) *Backoff {
	return New(DefaultInitialDelay, DefaultFactor, DefaultJitter, opts...)
}

// Delay is the duration the next WaitAndAdvance will block for.
func (b *Backoff) Delay() time.Duration {
	return b.delay
}

// WaitAndAdvance blocks for the current delay, then grows it to
// delay*factor + U[0, jitter).
func (b *Backoff) WaitAndAdvance() {
	b.sleep(b.delay)
	b.delay = addSat(scale(b.delay, b.factor), b.nextJitter())
}

func (b *Backoff) nextJitter() time.Duration {
	if b.jitter <= 0 {
		return 0
	}
	return time.Duration(b.rand.Int64N(int64(b.jitter)))
}

func scale(d time.Duration, factor float64) time.Duration {
	v := float64(d) * factor
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	}
	return time.Duration(v)
}

func addSat(a, b time.Duration) time.Duration {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
