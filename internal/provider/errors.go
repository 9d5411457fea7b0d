package provider

import (
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Typed failure kinds every adapter maps its upstream signals onto. Nothing
// provider-specific crosses this boundary.
var (
	ErrAuthInvalid      = crerr.New("provider auth invalid")
	ErrIPNotWhitelisted = crerr.New("provider rejected source ip")
	// ErrUpstreamUnavailable marks transient upstream failures (timeouts,
	// 5xx); callers may retry.
	ErrUpstreamUnavailable = crerr.New("provider upstream unavailable")
	ErrOddsNotCovered      = crerr.New("provider does not cover odds for fixture")
)

// RateLimitedError carries the upstream's retry-after hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("provider rate limited, retry after %s", e.RetryAfter)
}

// IsFatal reports whether the failure must not be retried inside the adapter.
// Auth failures propagate immediately; everything transient goes through the
// retry budget.
func IsFatal(err error) bool {
	return crerr.Is(err, ErrAuthInvalid) || crerr.Is(err, ErrIPNotWhitelisted)
}

// IsTransient reports whether the failure is worth a retry.
func IsTransient(err error) bool {
	if crerr.Is(err, ErrUpstreamUnavailable) {
		return true
	}
	var rl *RateLimitedError
	return crerr.As(err, &rl)
}
