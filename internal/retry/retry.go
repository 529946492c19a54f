// Package retry provides a bounded exponential-backoff wrapper for
// transient external calls. The file-lookup path is the only caller; all
// other failures in the delivery pipeline are single-shot by design.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule: MaxAttempts invocations with
// sleeps of BaseDelay * 2^attempt between failures (no jitter).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is a test seam; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy constructs a Policy. Attempts < 1 are coerced to 1.
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, sleep: sleepCtx}
}

// Do invokes op up to MaxAttempts times. On failure it waits
// BaseDelay * 2^i before attempt i+1 and finally returns the last error.
// A context cancellation during a wait aborts immediately with ctx.Err().
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var last error
	for i := 0; i < p.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = op(ctx)
		if last == nil {
			return nil
		}
		if i == p.MaxAttempts-1 {
			break
		}
		if err := sleep(ctx, p.BaseDelay<<uint(i)); err != nil {
			return err
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
