package providers

import (
	"context"
	"log/slog"

	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/pkg/platform/circuit"
)

// FallbackSource answers from the primary source and fails over to the
// secondary when the primary is unhealthy. A not_found from the primary is
// authoritative and is returned as is.
type FallbackSource struct {
	primary   RegionDataSource
	secondary RegionDataSource
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type FallbackOption func(*FallbackSource)

func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(f *FallbackSource) {
		f.logger = logger
	}
}

func WithFallbackMetrics(m *metrics.Metrics) FallbackOption {
	return func(f *FallbackSource) {
		f.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) FallbackOption {
	return func(f *FallbackSource) {
		if b != nil {
			f.breaker = b
		}
	}
}

// NewFallbackSource requires a primary. The secondary may be nil, in which
// case an open circuit fails fast instead of failing over.
func NewFallbackSource(primary, secondary RegionDataSource, opts ...FallbackOption) (*FallbackSource, error) {
	if primary == nil {
		return nil, ErrNoSource
	}
	f := &FallbackSource{
		primary:   primary,
		secondary: secondary,
		breaker:   circuit.New("region-primary"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *FallbackSource) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	if f.breaker.Allow() {
		options, err := f.primary.FetchChildren(ctx, level, parentCode)
		if err == nil {
			if _, change := f.breaker.RecordSuccess(); change.Closed {
				f.logger.InfoContext(ctx, "region primary source recovered", "breaker", f.breaker.Name())
				f.metrics.SetBreakerOpen(false)
			}
			return options, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		if _, change := f.breaker.RecordFailure(); change.Opened {
			f.logger.WarnContext(ctx, "region primary source circuit opened",
				"breaker", f.breaker.Name(),
				"error", err,
			)
			f.metrics.SetBreakerOpen(true)
		}
		if f.secondary == nil {
			return nil, err
		}
		f.logger.DebugContext(ctx, "region fetch failing over",
			"level", level.String(),
			"parent", parentCode,
			"error", err,
		)
	} else if f.secondary == nil {
		return nil, NewProviderError(ErrorProviderOutage, f.breaker.Name(), "primary unavailable", ErrCircuitOpen)
	}

	f.metrics.IncrementFailovers()
	return f.secondary.FetchChildren(ctx, level, parentCode)
}
