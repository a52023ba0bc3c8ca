package llm

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy is an explicit retry schedule consumed by retryDo, so both
// gateway endpoints share one backoff implementation instead of nesting
// inline sleeps.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// DefaultRetryPolicy retries twice after the first failure, at 5s and 15s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{5 * time.Second, 15 * time.Second},
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt]
}

// retryDo runs fn up to the policy's attempt count, sleeping the scheduled
// backoff between attempts. Only errors for which retryable returns true are
// retried; others (and exhaustion) return the last error.
func retryDo(ctx context.Context, log *slog.Logger, policy RetryPolicy, op string, fn func() error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := policy.delay(attempt - 1)
			log.Warn("llm.retry", "op", op, "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
