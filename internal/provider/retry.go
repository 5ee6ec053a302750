package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	brerrors "github.com/cadre-oss/brains/internal/errors"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.2,
	}
}

// RetryProvider wraps a Provider with automatic retry for transient errors.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// NewRetryProvider creates a RetryProvider wrapping inner.
func NewRetryProvider(inner Provider, cfg RetryConfig) *RetryProvider {
	return &RetryProvider{inner: inner, config: cfg}
}

func (r *RetryProvider) Name() string {
	return r.inner.Name()
}

// Unwrap returns the wrapped provider.
func (r *RetryProvider) Unwrap() Provider { return r.inner }

// Ping forwards to the wrapped provider when it supports it.
func (r *RetryProvider) Ping(ctx context.Context) error {
	if p, ok := r.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *RetryProvider) Complete(ctx context.Context, req *CompletionRequest) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		resp, err := r.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Retryable(err) {
			return nil, classify(err, r.inner.Name()+" call failed")
		}
		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, classify(ctx.Err(), "gave up waiting to retry")
		case <-time.After(r.backoff(attempt)):
		}
	}
	return nil, classify(lastErr, fmt.Sprintf("max retries (%d) exceeded", r.config.MaxRetries))
}

// classify tags a final model failure with the code callers branch on.
func classify(err error, msg string) error {
	var apiErr *APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return brerrors.Wrap(brerrors.CodeTimeout, msg, err).
			WithSuggestion("Raise defaults.timeout or pass --timeout")
	case errors.Is(err, context.Canceled):
		return brerrors.Wrap(brerrors.CodeInvocationFailed, msg, err)
	case errors.As(err, &apiErr) && apiErr.Status == 429:
		return brerrors.Wrap(brerrors.CodeRateLimited, msg, err).
			WithSuggestion("Slow down or raise provider.max_retries")
	case errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403):
		return brerrors.Wrap(brerrors.CodeInvocationFailed, msg, err).
			WithSuggestion("Check provider.api_key or the provider's API key environment variable")
	default:
		return brerrors.Wrap(brerrors.CodeInvocationFailed, msg, err)
	}
}

// Retryable reports whether err is a transient transport or endpoint error.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case 408, 429, 500, 502, 503, 504, 529:
			return true
		}
		return false
	}

	// Transport failures from the HTTP adapters.
	return strings.HasPrefix(err.Error(), "request failed:")
}

// backoff calculates the delay for a given attempt using exponential backoff with jitter.
func (r *RetryProvider) backoff(attempt int) time.Duration {
	base := float64(r.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(r.config.MaxBackoff) {
		base = float64(r.config.MaxBackoff)
	}

	jitter := base * r.config.JitterFraction * (rand.Float64()*2 - 1)
	delay := time.Duration(base + jitter)
	if delay < 0 {
		delay = 0
	}
	return delay
}
