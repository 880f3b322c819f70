package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerProvider stops calling a provider that keeps failing and fails
// fast with gobreaker.ErrOpenState until the timeout elapses.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(p Provider, cfg BreakerConfig, logger *zap.Logger) *BreakerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model circuit breaker changed state",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Rejected requests and caller cancellations say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
	})
	return &BreakerProvider{inner: p, cb: cb}
}

func (b *BreakerProvider) Name() string { return b.inner.Name() }

func (b *BreakerProvider) ModelName() string { return b.inner.ModelName() }

func (b *BreakerProvider) Models(ctx context.Context) ([]string, error) {
	return b.inner.Models(ctx)
}

func (b *BreakerProvider) State() gobreaker.State { return b.cb.State() }

func (b *BreakerProvider) Chat(ctx context.Context, msgs []Message, tools []ToolDef) (<-chan StreamChunk, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Chat(ctx, msgs, tools)
	})
	if err != nil {
		return nil, err
	}
	return res.(<-chan StreamChunk), nil
}
