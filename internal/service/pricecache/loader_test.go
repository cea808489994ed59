package pricecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/pkg/logger"
)

type fakeFetcher struct {
	calls  int
	series *models.PriceSeries
	err    error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ repository.Frequency) (*models.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string)      {}
func (nopMetrics) RecordCacheEvent(string, string) {}
func (nopMetrics) RecordPrediction(string)         {}
func (nopMetrics) RecordTickerError(string)        {}
func (nopMetrics) RecordLatency(string, float64)   {}

func loaderLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestLoaderAutoServesFreshCacheWithoutFetch(t *testing.T) {
	store := NewFileCache(t.TempDir())
	series := sampleSeries("AAPL", 30)
	if err := store.Save("AAPL", repository.FreqDaily, series); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetcher := &fakeFetcher{series: series}
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t))

	res, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeAuto)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("fresh cache must not trigger a fetch, got %d calls", fetcher.calls)
	}
	if res.Stale || res.Source != "cache" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLoaderAutoFetchesOnMissAndSaves(t *testing.T) {
	store := NewFileCache(t.TempDir())
	fetcher := &fakeFetcher{series: sampleSeries("AAPL", 30)}
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t))

	res, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeAuto)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
	if res.Source != "live" {
		t.Fatalf("expected live source, got %s", res.Source)
	}

	entry, err := store.Load("AAPL", repository.FreqDaily)
	if err != nil || entry == nil {
		t.Fatalf("live fetch should populate the cache: %v, %v", entry, err)
	}
}

func TestLoaderAutoFallsBackToStaleCache(t *testing.T) {
	store := NewFileCache(t.TempDir())
	series := sampleSeries("AAPL", 30)
	if err := store.Save("AAPL", repository.FreqDaily, series); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetcher := &fakeFetcher{err: errors.New("providers down")}
	// zero-width TTL makes the seeded entry immediately stale
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t), WithTTL(time.Nanosecond, time.Nanosecond))

	res, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeAuto)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Stale || res.Source != "stale_cache" {
		t.Fatalf("expected stale fallback, got %+v", res)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected fetch attempt before fallback, got %d", fetcher.calls)
	}
}

func TestLoaderAutoFailsWhenNothingAvailable(t *testing.T) {
	store := NewFileCache(t.TempDir())
	fetchErr := errors.New("providers down")
	l := NewLoader(&fakeFetcher{err: fetchErr}, store, nopMetrics{}, loaderLogger(t))

	_, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeAuto)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestLoaderLiveModeFailsHard(t *testing.T) {
	store := NewFileCache(t.TempDir())
	if err := store.Save("AAPL", repository.FreqDaily, sampleSeries("AAPL", 30)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetchErr := errors.New("providers down")
	l := NewLoader(&fakeFetcher{err: fetchErr}, store, nopMetrics{}, loaderLogger(t))

	// cached data exists but live mode must not use it
	if _, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeLive); !errors.Is(err, fetchErr) {
		t.Fatalf("expected hard failure, got %v", err)
	}
}

func TestLoaderCacheModeServesStaleMarked(t *testing.T) {
	store := NewFileCache(t.TempDir())
	if err := store.Save("AAPL", repository.FreqDaily, sampleSeries("AAPL", 30)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetcher := &fakeFetcher{series: sampleSeries("AAPL", 30)}
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t), WithTTL(time.Nanosecond, time.Nanosecond))

	res, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeCache)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Stale {
		t.Fatalf("expected stale flag")
	}
	if fetcher.calls != 0 {
		t.Fatalf("cache mode must never fetch")
	}
}

func TestLoaderTrimsToLookback(t *testing.T) {
	store := NewFileCache(t.TempDir())
	series := sampleSeries("AAPL", 30)
	// dates start in 2024, far outside any recent lookback window
	fetcher := &fakeFetcher{series: series}
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t), WithLookback(24*time.Hour))

	_, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeAuto)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// the stored cache keeps the full series even though the result is trimmed
	entry, err := store.Load("AAPL", repository.FreqDaily)
	if err != nil || entry == nil {
		t.Fatalf("cache load: %v, %v", entry, err)
	}
	if entry.Series.Len() != 30 {
		t.Fatalf("cache should hold the full series, got %d", entry.Series.Len())
	}
}

func TestLoaderLookbackKeepsRecentPoints(t *testing.T) {
	store := NewFileCache(t.TempDir())
	now := time.Now().UTC()
	raw := make([]models.PricePoint, 40)
	for i := range raw {
		raw[i] = models.PricePoint{Date: now.AddDate(0, 0, i-len(raw)), Price: 100 + float64(i)}
	}
	fetcher := &fakeFetcher{series: models.Normalize("AAPL", raw)}
	l := NewLoader(fetcher, store, nopMetrics{}, loaderLogger(t), WithLookback(10*24*time.Hour))

	res, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeLive)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Series.Len() >= 40 {
		t.Fatalf("expected older points trimmed, got %d", res.Series.Len())
	}
	if res.Series.Len() == 0 {
		t.Fatalf("recent points must survive the trim")
	}
}

func TestLoaderCacheModeMissIsUnavailable(t *testing.T) {
	l := NewLoader(&fakeFetcher{}, NewFileCache(t.TempDir()), nopMetrics{}, loaderLogger(t))

	_, err := l.Load(context.Background(), "AAPL", repository.FreqDaily, ModeCache)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
