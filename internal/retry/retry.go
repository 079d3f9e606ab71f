// Package retry provides a bounded retry policy shared by the translation
// router and device reload paths.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded retry schedule with linear backoff: the delay
// before attempt n+1 is Backoff*n.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultPolicy matches the translation router contract: three attempts with
// delays of 2s and 4s between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// Delay returns the sleep before the given 1-based attempt. The first attempt
// has no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.Backoff * time.Duration(attempt-1)
}

// ErrAbort wraps an error to stop retrying immediately. The wrapped error is
// returned to the caller unretried.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort marks err as non-retryable.
func Abort(err error) error {
	return &abortError{err: err}
}

// Do runs fn up to p.MaxAttempts times, sleeping the policy delay between
// attempts. It stops early when fn succeeds, when fn returns an error marked
// with Abort, or when ctx is done. The last error is returned on exhaustion.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if d := p.Delay(attempt); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}

		var abort *abortError
		if errors.As(err, &abort) {
			return abort.err
		}
		lastErr = err
	}
	return lastErr
}
