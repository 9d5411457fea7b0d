package provider

import (
	"context"
	"math/rand"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

const (
	retryBudget   = 3
	backoffBase   = 500 * time.Millisecond
	backoffFactor = 2
	backoffJitter = 0.2
	maxRetryAfter = 2 * time.Minute
)

// DoWithRetry runs fn up to 1+retryBudget times. Rate-limit hints are honored
// by sleeping the advertised retry-after; other transient failures back off
// exponentially with +-20% jitter. Fatal failures and context cancellation
// return immediately.
func DoWithRetry[T any](ctx context.Context, logger *logging.Logger, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= retryBudget; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if IsFatal(err) || !IsTransient(err) {
			return zero, err
		}
		if attempt == retryBudget {
			break
		}

		wait := backoffDelay(attempt)
		var rl *RateLimitedError
		if crerr.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
			if wait > maxRetryAfter {
				wait = maxRetryAfter
			}
		}
		logger.WarnContext(ctx, "provider call failed, retrying",
			"op", op, "attempt", attempt+1, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func backoffDelay(attempt int) time.Duration {
	d := backoffBase
	for i := 0; i < attempt; i++ {
		d *= backoffFactor
	}
	jitter := 1 + backoffJitter*(2*rand.Float64()-1)
	return time.Duration(float64(d) * jitter)
}
