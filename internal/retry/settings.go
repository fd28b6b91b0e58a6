package retry

import "time"

// Settings describes retry sessions for one upstream.
type Settings struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	Jitter        time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxRetries:    3,
		InitialDelay:  DefaultInitialDelay,
		BackoffFactor: DefaultFactor,
		Jitter:        DefaultJitter,
	}
}

// NewBackoff returns a fresh policy for a single session.
func (s Settings) NewBackoff(opts ...Option) *Backoff {
	return New(s.InitialDelay, s.BackoffFactor, s.Jitter, opts...)
}

// Do runs op as one retry session configured by s.
func Do[T any](s Settings, op func() (T, error), opts ...Option) (T, error) {
	return Execute(op, s.NewBackoff(opts...), s.MaxRetries)
}
