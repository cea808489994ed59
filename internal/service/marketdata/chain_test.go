package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/pkg/logger"
)

type fakeSource struct {
	name   string
	calls  int
	series *models.PriceSeries
	err    error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, _ string, _ repository.Frequency) (*models.PriceSeries, error) {
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

func chainLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func dailySeries(ticker string, n int) *models.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := make([]models.PricePoint, n)
	for i := range raw {
		raw[i] = models.PricePoint{Date: base.AddDate(0, 0, i), Price: 100 + float64(i)}
	}
	return models.Normalize(ticker, raw)
}

func newTestChain(t *testing.T, sources ...repository.PriceSource) *Chain {
	t.Helper()
	return NewChain(sources, nopMetrics{}, chainLogger(t),
		WithAttempts(2),
		WithBackoff(time.Millisecond),
	)
}

func TestChainPrefersFirstProvider(t *testing.T) {
	first := &fakeSource{name: "first", series: dailySeries("AAPL", 10)}
	second := &fakeSource{name: "second", series: dailySeries("AAPL", 10)}

	got, err := newTestChain(t, first, second).Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Len() != 10 {
		t.Fatalf("unexpected series length %d", got.Len())
	}
	if first.calls != 1 || second.calls != 0 {
		t.Fatalf("expected only the first provider used: first=%d second=%d", first.calls, second.calls)
	}
}

func TestChainFallsBackAfterRetries(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	backup := &fakeSource{name: "backup", series: dailySeries("AAPL", 10)}

	got, err := newTestChain(t, broken, backup).Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Len() != 10 {
		t.Fatalf("unexpected series length %d", got.Len())
	}
	if broken.calls != 2 {
		t.Fatalf("expected 2 attempts against broken provider, got %d", broken.calls)
	}
	if backup.calls != 1 {
		t.Fatalf("expected 1 call to backup, got %d", backup.calls)
	}
}

func TestChainSkipsUnconfiguredProviderWithoutRetry(t *testing.T) {
	unconfigured := &fakeSource{name: "keyless", err: ErrNoAPIKey}
	backup := &fakeSource{name: "backup", series: dailySeries("AAPL", 10)}

	if _, err := newTestChain(t, unconfigured, backup).Fetch(context.Background(), "AAPL", repository.FreqDaily); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if unconfigured.calls != 1 {
		t.Fatalf("skip must not be retried, got %d calls", unconfigured.calls)
	}
}

func TestChainAggregatesAllFailures(t *testing.T) {
	a := &fakeSource{name: "a", err: errors.New("down")}
	b := &fakeSource{name: "b", err: errors.New("also down")}

	_, err := newTestChain(t, a, b).Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("chain error must unwrap to ErrDataUnavailable, got %v", err)
	}

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected ChainError, got %T", err)
	}
	if len(chainErr.Failures) != 2 {
		t.Fatalf("expected a failure per provider, got %d", len(chainErr.Failures))
	}
	if chainErr.Failures[0].Provider != "a" || chainErr.Failures[1].Provider != "b" {
		t.Fatalf("failures out of order: %+v", chainErr.Failures)
	}
}

func TestChainEmptySeriesIsFailure(t *testing.T) {
	empty := &fakeSource{name: "empty", series: &models.PriceSeries{Ticker: "AAPL"}}
	backup := &fakeSource{name: "backup", series: dailySeries("AAPL", 10)}

	got, err := newTestChain(t, empty, backup).Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Len() != 10 {
		t.Fatalf("expected backup series, got %d points", got.Len())
	}
}

func TestChainResamplesMonthly(t *testing.T) {
	// ~3 months of daily bars
	src := &fakeSource{name: "src", series: dailySeries("AAPL", 90)}

	got, err := newTestChain(t, src).Fetch(context.Background(), "AAPL", repository.FreqMonthly)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Len() < 3 || got.Len() > 4 {
		t.Fatalf("expected monthly resample, got %d points", got.Len())
	}
}
