package marketdata

import (
	"context"
	"errors"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/pkg/logger"

	"github.com/sony/gobreaker"
)

// ChainOption configures Chain.
type ChainOption func(*chainConfig)

type chainConfig struct {
	attempts        int
	backoff         time.Duration
	breakerWindow   time.Duration
	breakerCooldown time.Duration
}

// WithAttempts sets per-provider attempt count.
func WithAttempts(n int) ChainOption {
	return func(c *chainConfig) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the pause between attempts against the same provider.
func WithBackoff(d time.Duration) ChainOption {
	return func(c *chainConfig) {
		c.backoff = d
	}
}

// WithBreaker sets the rolling window and open-state cooldown for the
// per-provider circuit breakers.
func WithBreaker(window, cooldown time.Duration) ChainOption {
	return func(c *chainConfig) {
		if window > 0 {
			c.breakerWindow = window
		}
		if cooldown > 0 {
			c.breakerCooldown = cooldown
		}
	}
}

// Chain tries providers in order until one returns a usable series. Each
// provider sits behind its own circuit breaker so a flapping upstream stops
// costing attempts for a while.
type Chain struct {
	sources  []repository.PriceSource
	breakers []*gobreaker.CircuitBreaker
	cfg      chainConfig
	metrics  repository.Metrics
	log      *logger.Logger
}

// NewChain creates a provider chain. Order matters: earlier sources are
// preferred.
func NewChain(sources []repository.PriceSource, metrics repository.Metrics, log *logger.Logger, opts ...ChainOption) *Chain {
	cfg := chainConfig{
		attempts:        2,
		backoff:         500 * time.Millisecond,
		breakerWindow:   time.Minute,
		breakerCooldown: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	breakers := make([]*gobreaker.CircuitBreaker, len(sources))
	for i, src := range sources {
		breakers[i] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     src.Name(),
			Interval: cfg.breakerWindow,
			Timeout:  cfg.breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return &Chain{
		sources:  sources,
		breakers: breakers,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
	}
}

// Fetch walks the provider chain for one ticker. On success the series is
// already normalized; monthly frequency is resampled from daily bars here so
// every provider only has to speak daily. Failure returns a ChainError
// listing what each provider did.
func (c *Chain) Fetch(ctx context.Context, ticker string, freq repository.Frequency) (*models.PriceSeries, error) {
	var failures []*ProviderError

	for i, src := range c.sources {
		series, perr := c.fetchOne(ctx, i, src, ticker)
		if perr != nil {
			failures = append(failures, perr)
			if perr.Kind != FailSkipped {
				c.log.Warn("provider failed",
					logger.String("provider", src.Name()),
					logger.String("ticker", ticker),
					logger.String("kind", string(perr.Kind)),
					logger.Error(perr.Err),
				)
			}
			continue
		}

		if freq == repository.FreqMonthly {
			series = series.MonthlyLast()
		}

		c.log.Debug("provider ok",
			logger.String("provider", src.Name()),
			logger.String("ticker", ticker),
			logger.Int("points", series.Len()),
		)
		return series, nil
	}

	return nil, &ChainError{Ticker: ticker, Failures: failures}
}

func (c *Chain) fetchOne(ctx context.Context, idx int, src repository.PriceSource, ticker string) (*models.PriceSeries, *ProviderError) {
	var lastErr *ProviderError

	for attempt := 0; attempt < c.cfg.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ProviderError{Provider: src.Name(), Ticker: ticker, Kind: FailNetwork, Err: ctx.Err()}
			case <-time.After(c.cfg.backoff):
			}
		}

		result, err := c.breakers[idx].Execute(func() (interface{}, error) {
			return src.Fetch(ctx, ticker, repository.FreqDaily)
		})
		if err != nil {
			kind := classify(err)
			c.metrics.RecordFetch(src.Name(), string(kind))
			lastErr = &ProviderError{Provider: src.Name(), Ticker: ticker, Kind: kind, Err: err}
			// skipped and open-breaker states never succeed on retry
			if kind == FailSkipped || kind == FailBreakerOpen {
				return nil, lastErr
			}
			continue
		}

		series := result.(*models.PriceSeries)
		if series == nil || series.Len() == 0 {
			c.metrics.RecordFetch(src.Name(), string(FailEmpty))
			lastErr = &ProviderError{Provider: src.Name(), Ticker: ticker, Kind: FailEmpty}
			continue
		}

		c.metrics.RecordFetch(src.Name(), "ok")
		return series, nil
	}

	return nil, lastErr
}

func classify(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return FailSkipped
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return FailBreakerOpen
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return FailNetwork
	default:
		return FailNetwork
	}
}
