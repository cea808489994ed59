package pricecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/pkg/cache"
	"EquityPulse/pkg/logger"
)

// Mode controls how the loader balances cached and live data.
type Mode string

const (
	// ModeCache serves only cached data, stale or not.
	ModeCache Mode = "cache"
	// ModeLive always fetches and fails hard when providers do.
	ModeLive Mode = "live"
	// ModeAuto serves fresh cache, otherwise fetches, otherwise falls back
	// to stale cache.
	ModeAuto Mode = "auto"
)

// Fetcher is the live data dependency, satisfied by marketdata.Chain.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, freq repository.Frequency) (*models.PriceSeries, error)
}

// Result is a loaded series with provenance.
type Result struct {
	Series *models.PriceSeries
	// Stale is set when the series came from cache past its TTL.
	Stale bool
	// Source is "cache", "live", or "stale_cache".
	Source string
}

// LoaderOption configures Loader.
type LoaderOption func(*Loader)

// WithHotLayer adds an in-process/Redis layer in front of the file cache.
func WithHotLayer(hot cache.Service) LoaderOption {
	return func(l *Loader) {
		l.hot = hot
	}
}

// WithLookback bounds how far back returned series reach. Zero means
// unbounded.
func WithLookback(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.lookback = d
	}
}

// WithTTL overrides the per-frequency freshness windows.
func WithTTL(daily, monthly time.Duration) LoaderOption {
	return func(l *Loader) {
		if daily > 0 {
			l.ttlDaily = daily
		}
		if monthly > 0 {
			l.ttlMonthly = monthly
		}
	}
}

// Loader resolves a price series for a ticker according to a Mode.
type Loader struct {
	fetcher    Fetcher
	store      repository.PriceCache
	hot        cache.Service
	metrics    repository.Metrics
	log        *logger.Logger
	ttlDaily   time.Duration
	ttlMonthly time.Duration
	lookback   time.Duration
}

// NewLoader creates a price series loader.
func NewLoader(fetcher Fetcher, store repository.PriceCache, metrics repository.Metrics, log *logger.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:    fetcher,
		store:      store,
		metrics:    metrics,
		log:        log,
		ttlDaily:   repository.TTLFor(repository.FreqDaily),
		ttlMonthly: repository.TTLFor(repository.FreqMonthly),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) ttl(freq repository.Frequency) time.Duration {
	if freq == repository.FreqMonthly {
		return l.ttlMonthly
	}
	return l.ttlDaily
}

// Load resolves the series for one ticker.
func (l *Loader) Load(ctx context.Context, ticker string, freq repository.Frequency, mode Mode) (*Result, error) {
	switch mode {
	case ModeCache:
		return l.loadCacheOnly(ctx, ticker, freq)
	case ModeLive:
		return l.loadLive(ctx, ticker, freq)
	case ModeAuto, "":
		return l.loadAuto(ctx, ticker, freq)
	default:
		return nil, fmt.Errorf("unknown load mode %q", mode)
	}
}

func (l *Loader) loadCacheOnly(ctx context.Context, ticker string, freq repository.Frequency) (*Result, error) {
	entry, err := l.cached(ctx, ticker, freq)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		l.metrics.RecordCacheEvent(string(freq), "miss")
		return nil, fmt.Errorf("%s: no cached data: %w", ticker, models.ErrDataUnavailable)
	}

	stale := !entry.Fresh(l.ttl(freq), time.Now())
	if stale {
		l.metrics.RecordCacheEvent(string(freq), "stale")
	} else {
		l.metrics.RecordCacheEvent(string(freq), "hit")
	}
	return &Result{Series: l.trimmed(entry.Series), Stale: stale, Source: "cache"}, nil
}

func (l *Loader) loadLive(ctx context.Context, ticker string, freq repository.Frequency) (*Result, error) {
	series, err := l.fetcher.Fetch(ctx, ticker, freq)
	if err != nil {
		return nil, err
	}
	l.persist(ctx, ticker, freq, series)
	return &Result{Series: l.trimmed(series), Source: "live"}, nil
}

func (l *Loader) loadAuto(ctx context.Context, ticker string, freq repository.Frequency) (*Result, error) {
	entry, err := l.cached(ctx, ticker, freq)
	if err != nil {
		return nil, err
	}

	if entry != nil && entry.Fresh(l.ttl(freq), time.Now()) {
		l.metrics.RecordCacheEvent(string(freq), "hit")
		return &Result{Series: l.trimmed(entry.Series), Source: "cache"}, nil
	}

	series, fetchErr := l.fetcher.Fetch(ctx, ticker, freq)
	if fetchErr == nil {
		l.persist(ctx, ticker, freq, series)
		return &Result{Series: l.trimmed(series), Source: "live"}, nil
	}

	if entry != nil {
		// stale beats nothing
		l.metrics.RecordCacheEvent(string(freq), "stale")
		l.log.Warn("live fetch failed, serving stale cache",
			logger.String("ticker", ticker),
			logger.String("freq", string(freq)),
			logger.Error(fetchErr),
		)
		return &Result{Series: l.trimmed(entry.Series), Stale: true, Source: "stale_cache"}, nil
	}

	l.metrics.RecordCacheEvent(string(freq), "miss")
	return nil, fetchErr
}

// trimmed bounds the series to the lookback window. Cached series are shared
// with the hot layer, so trimming works on a copy of the header.
func (l *Loader) trimmed(series *models.PriceSeries) *models.PriceSeries {
	if l.lookback <= 0 || series.Len() == 0 {
		return series
	}
	cutoff := time.Now().UTC().Add(-l.lookback)
	if !series.Points[0].Date.Before(cutoff) {
		return series
	}
	out := &models.PriceSeries{Ticker: series.Ticker, Points: series.Points}
	out.TrimBefore(cutoff)
	return out
}

func hotKey(ticker string, freq repository.Frequency) string {
	return fmt.Sprintf("prices:%s:%s", freq, ticker)
}

// cached reads the hot layer first, then the file cache, promoting file
// cache hits into the hot layer.
func (l *Loader) cached(ctx context.Context, ticker string, freq repository.Frequency) (*repository.CacheEntry, error) {
	if l.hot != nil {
		var entry repository.CacheEntry
		err := l.hot.Get(ctx, hotKey(ticker, freq), &entry)
		if err == nil && entry.Series != nil {
			return &entry, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			l.log.Debug("hot cache read failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}

	entry, err := l.store.Load(ticker, freq)
	if err != nil {
		return nil, err
	}
	if entry != nil && l.hot != nil {
		_ = l.hot.Set(ctx, hotKey(ticker, freq), entry, l.ttl(freq))
	}
	return entry, nil
}

func (l *Loader) persist(ctx context.Context, ticker string, freq repository.Frequency, series *models.PriceSeries) {
	if err := l.store.Save(ticker, freq, series); err != nil {
		// a failed save must not fail the run
		l.log.Warn("cache save failed",
			logger.String("ticker", ticker),
			logger.String("freq", string(freq)),
			logger.Error(err),
		)
		return
	}
	l.metrics.RecordCacheEvent(string(freq), "save")

	if l.hot != nil {
		entry := &repository.CacheEntry{Series: series, FetchedAt: time.Now().UTC()}
		_ = l.hot.Set(ctx, hotKey(ticker, freq), entry, l.ttl(freq))
	}
}
