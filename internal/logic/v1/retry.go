package v1

import (
	"context"
	"errors"
	"time"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

const (
	retryAttempts = 3
	retryDelay    = time.Second
)

// WithRetry runs fn up to attempts times with a fixed delay between tries.
// Only transport-level failures are retried: a *domain.ProviderError is a
// definitive answer from the provider (e.g. an invalid token) and terminates
// immediately.
func WithRetry[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return zero, err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
