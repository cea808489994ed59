package pricecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
)

func sampleSeries(ticker string, n int) *models.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := make([]models.PricePoint, n)
	for i := range raw {
		raw[i] = models.PricePoint{Date: base.AddDate(0, 0, i), Price: 100 + float64(i)}
	}
	return models.Normalize(ticker, raw)
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache(t.TempDir())
	series := sampleSeries("AAPL", 30)

	if err := fc.Save("AAPL", repository.FreqDaily, series); err != nil {
		t.Fatalf("save: %v", err)
	}

	entry, err := fc.Load("AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected entry")
	}
	if entry.Series.Len() != series.Len() {
		t.Fatalf("expected %d points, got %d", series.Len(), entry.Series.Len())
	}
	if !entry.Fresh(time.Hour, time.Now()) {
		t.Fatalf("freshly written entry should be fresh")
	}
	if entry.Series.Last().Price != series.Last().Price {
		t.Fatalf("last price mismatch")
	}
}

func TestFileCacheMissingIsMiss(t *testing.T) {
	fc := NewFileCache(t.TempDir())

	entry, err := fc.Load("NOPE", repository.FreqDaily)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected miss, got %+v", entry)
	}
}

func TestFileCacheCorruptIsMiss(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache(dir)

	path := filepath.Join(dir, "daily", "AAPL.csv")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("this is not a cache file"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entry, err := fc.Load("AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry != nil {
		t.Fatalf("corrupt file must read as a miss")
	}
}

func TestFileCacheFrequenciesSeparate(t *testing.T) {
	fc := NewFileCache(t.TempDir())

	if err := fc.Save("AAPL", repository.FreqDaily, sampleSeries("AAPL", 30)); err != nil {
		t.Fatalf("save: %v", err)
	}

	entry, err := fc.Load("AAPL", repository.FreqMonthly)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry != nil {
		t.Fatalf("monthly entry should not exist")
	}
}

func TestFileCacheOverwrite(t *testing.T) {
	fc := NewFileCache(t.TempDir())

	if err := fc.Save("AAPL", repository.FreqDaily, sampleSeries("AAPL", 10)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fc.Save("AAPL", repository.FreqDaily, sampleSeries("AAPL", 20)); err != nil {
		t.Fatalf("save: %v", err)
	}

	entry, err := fc.Load("AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if entry.Series.Len() != 20 {
		t.Fatalf("expected overwrite to win, got %d points", entry.Series.Len())
	}
}
