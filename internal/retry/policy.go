// Package retry holds the single retry policy shared by every outbound call.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how an operation is retried.
// MaxAttempts counts the first call; values below 1 behave as 1.
type Policy struct {
	MaxAttempts int
	// Backoff returns the wait before retry number attempt (1-based).
	Backoff func(attempt int) time.Duration
	// Retryable decides whether err deserves another attempt. Nil retries everything.
	Retryable func(err error) bool
	// Name labels log lines emitted between attempts.
	Name string
}

// Fixed returns a policy sleeping delay between attempts.
func Fixed(attempts int, delay time.Duration, retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff:     func(int) time.Duration { return delay },
		Retryable:   retryable,
	}
}

// Exponential returns a policy whose delay grows by multiplier up to max.
func Exponential(attempts int, initial, max time.Duration, multiplier float64, retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff: func(attempt int) time.Duration {
			d := float64(initial)
			for i := 1; i < attempt; i++ {
				d *= multiplier
				if time.Duration(d) >= max {
					return max
				}
			}
			return time.Duration(d)
		},
		Retryable: retryable,
	}
}

// None performs exactly one attempt.
func None() Policy { return Policy{MaxAttempts: 1} }

// Named returns a copy of p labelled for logging.
func (p Policy) Named(name string) Policy {
	p.Name = name
	return p
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts
// are spent or ctx is done. The last operation error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b := backoff.WithContext(&schedule{policy: p}, ctx)
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		slog.Default().Debug("retrying",
			slog.String("op", p.Name),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err))
	})
}

// schedule adapts Policy to backoff.BackOff.
type schedule struct {
	policy  Policy
	retries int
}

func (s *schedule) NextBackOff() time.Duration {
	max := s.policy.MaxAttempts
	if max < 1 {
		max = 1
	}
	if s.retries+1 >= max {
		return backoff.Stop
	}
	s.retries++
	if s.policy.Backoff == nil {
		return 0
	}
	return s.policy.Backoff(s.retries)
}

func (s *schedule) Reset() { s.retries = 0 }
