package datasource

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is the single retry-with-backoff abstraction used by every
// provider call. It retries transient failures with exponential backoff
// plus jitter; rate-limit and not-found errors short-circuit immediately.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on the backoff delay
	// AttemptTimeout bounds each individual attempt. Zero means the
	// attempt runs under the caller's context alone.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy matches the aggregator defaults: three attempts,
// 250ms base, 2s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// Do runs fn until it succeeds, exhausts the attempt bound, hits a
// non-transient error, or the context is cancelled. The last error is
// returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt)):
			}
		}

		attemptCtx := ctx
		cancel := func() {}
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		// Only the caller's own cancellation ends the loop early; an
		// attempt that ran out its per-attempt deadline is an ordinary
		// transient failure and goes back around.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !Transient(err) {
			return err
		}
	}
	return err
}

// backoff returns the delay before the given attempt (1-based for the
// first retry): base * 2^(attempt-1), with up to 25% random jitter,
// capped at MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	// Jitter avoids thundering-herd retries against a recovering provider.
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}
