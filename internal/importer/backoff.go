package importer

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy bounds the randomized backoff a shard writer uses when it
// contends with other workers on the shared hierarchical file. Redesigned
// from the teacher's circuit-breaker window/threshold/open-duration shape
// into a bounded-attempt randomized backoff: there is no "open" state here
// because a write either eventually succeeds or the shard fails outright,
// there is no shared failure state to trip a breaker on.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the contention characteristics of a single
// shared DuckDB file under modest worker counts.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 8,
	BaseDelay:   10 * time.Millisecond,
	MaxDelay:    500 * time.Millisecond,
}

// Retry calls fn until it succeeds, ctx is cancelled, or MaxAttempts is
// exhausted, sleeping a randomized exponential backoff between attempts.
func (p RetryPolicy) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		delay := p.delayFor(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("importer: write contended after %d attempts: %w", p.MaxAttempts, lastErr)
}

func (p RetryPolicy) delayFor(attempt int) time.Duration {
	backoff := p.BaseDelay << attempt
	if backoff > p.MaxDelay || backoff <= 0 {
		backoff = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(backoff) + 1))
	return jitter
}
