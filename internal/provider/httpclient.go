package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/matchsight/matchsight/internal/platform/logging"
	"github.com/matchsight/matchsight/internal/platform/resilience"
)

const maxResponseBytes = 6 << 20

// HTTPConfig is the shared wiring for concrete adapters.
type HTTPConfig struct {
	ProviderID        string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	Timezone          string
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
	HTTPClient        *http.Client
}

// HTTPCore bundles the pieces every adapter needs: a deadline-bound client,
// a per-provider token bucket sized from the plan tier, and a breaker that
// degrades the provider for the rest of the cycle after repeated failures.
type HTTPCore struct {
	providerID     string
	httpClient     *http.Client
	limiter        *rate.Limiter
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
	timezone       string
}

func NewHTTPCore(cfg HTTPConfig) *HTTPCore {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &HTTPCore{
		providerID:     cfg.ProviderID,
		httpClient:     httpClient,
		limiter:        rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		logger:         logger,
		timezone:       cfg.Timezone,
	}
}

// Get performs one rate-limited, breaker-guarded request. decorate adds the
// provider's auth header; the access-control mode never leaves the adapter.
func (c *HTTPCore) Get(ctx context.Context, fullURL string, decorate func(*http.Request)) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, crerr.Wrapf(ErrUpstreamUnavailable, "%s circuit open", c.providerID)
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Wrapf(ErrUpstreamUnavailable, "%s: %v", c.providerID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure()
		return nil, crerr.Wrapf(ErrUpstreamUnavailable, "%s: read body: %v", c.providerID, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.recordSuccess()
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.recordSuccess() // auth failures are not upstream health signals
		return nil, crerr.Wrapf(ErrAuthInvalid, "%s: status %d", c.providerID, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		c.recordSuccess()
		return nil, crerr.Wrapf(ErrIPNotWhitelisted, "%s: status %d", c.providerID, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		c.recordFailure()
		return nil, &RateLimitedError{RetryAfter: retryAfterHint(resp.Header)}
	default:
		c.recordFailure()
		return nil, crerr.Wrapf(ErrUpstreamUnavailable, "%s: status %d", c.providerID, resp.StatusCode)
	}
}

func (c *HTTPCore) Logger() *logging.Logger { return c.logger }

// Timezone is the provider's declared local timezone for naive timestamps.
func (c *HTTPCore) Timezone() string { return c.timezone }

func (c *HTTPCore) recordSuccess() {
	if c.circuitEnabled {
		c.breaker.RecordSuccess()
	}
}

func (c *HTTPCore) recordFailure() {
	if c.circuitEnabled {
		c.breaker.RecordFailure()
	}
}

func retryAfterHint(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
