package provider

import (
	"context"
	"errors"
	"math"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// RetryProvider wraps a Provider with exponential backoff retry logic.
// Only the request itself is retried; a stream that fails half way is not.
type RetryProvider struct {
	inner      Provider
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func WithRetry(p Provider, maxRetries int, logger *zap.Logger) *RetryProvider {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryProvider{inner: p, maxRetries: maxRetries, baseDelay: 500 * time.Millisecond, logger: logger}
}

func (r *RetryProvider) Name() string { return r.inner.Name() }

func (r *RetryProvider) ModelName() string { return r.inner.ModelName() }

func (r *RetryProvider) Models(ctx context.Context) ([]string, error) {
	return r.inner.Models(ctx)
}

func (r *RetryProvider) Chat(ctx context.Context, msgs []Message, tools []ToolDef) (<-chan StreamChunk, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		ch, err := r.inner.Chat(ctx, msgs, tools)
		if err == nil {
			return ch, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}
		r.logger.Warn("model request failed, retrying",
			zap.String("provider", r.inner.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := r.backoff(ctx, attempt); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func (r *RetryProvider) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(r.baseDelay) * math.Pow(2, float64(attempt)))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
