// Package retry runs an operation under an explicit attempt bound, a backoff
// policy and a retryable-error predicate.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrExhausted is returned once every attempt has failed with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy configures Do.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// BackOff decides the wait between tries. Nil means no wait.
	BackOff backoff.BackOff
	// Retryable reports whether err is worth another try. Nil retries
	// everything except permanent errors. Nothing is retried once ctx is done.
	Retryable func(error) bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Immediate retries up to attempts times with no delay.
func Immediate(attempts int) Policy {
	return Policy{Attempts: attempts, BackOff: &backoff.ZeroBackOff{}}
}

// Constant retries up to attempts times, waiting d between tries.
func Constant(attempts int, d time.Duration) Policy {
	return Policy{Attempts: attempts, BackOff: backoff.NewConstantBackOff(d)}
}

// Permanent marks err so that Do stops immediately and returns it.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempt bound is reached. attempt is 1-based.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	bo := p.BackOff
	if bo == nil {
		bo = &backoff.ZeroBackOff{}
	}
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return zero, perm.Unwrap()
		}
		if ctx.Err() != nil || !isRetryable(p, err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.Attempts {
			break
		}
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.Attempts, lastErr)
}

func isRetryable(p Policy, err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}
