package pricecache

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/pkg/util"
)

// FileCache stores one CSV per (ticker, frequency) under a base directory.
// Rows are date,price,fetched_at; freshness is judged from the newest
// fetched_at in the file. A missing or unparsable file reads as a miss, not
// an error, so a corrupt cache never blocks a live fetch.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(ticker string, freq repository.Frequency) string {
	return filepath.Join(c.dir, string(freq), util.SafeFileTicker(ticker)+".csv")
}

// Load reads the cached series for (ticker, freq). Returns (nil, nil) when
// there is no usable entry.
func (c *FileCache) Load(ticker string, freq repository.Frequency) (*repository.CacheEntry, error) {
	f, err := os.Open(c.path(ticker, freq))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return nil, nil
	}

	var fetchedAt time.Time
	raw := make([]models.PricePoint, 0, len(records)-1)
	for _, rec := range records[1:] {
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, nil
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil
		}
		ts, err := time.Parse(time.RFC3339, rec[2])
		if err != nil {
			return nil, nil
		}
		if ts.After(fetchedAt) {
			fetchedAt = ts
		}
		raw = append(raw, models.PricePoint{Date: date.UTC(), Price: price})
	}

	series := models.Normalize(ticker, raw)
	if series.Len() == 0 {
		return nil, nil
	}

	return &repository.CacheEntry{Series: series, FetchedAt: fetchedAt}, nil
}

// Save writes the series atomically: temp file in the same directory, then
// rename over the old entry.
func (c *FileCache) Save(ticker string, freq repository.Frequency, series *models.PriceSeries) error {
	target := c.path(ticker, freq)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	fetchedAt := time.Now().UTC().Format(time.RFC3339)

	if err := w.Write([]string{"date", "price", "fetched_at"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range series.Points {
		rec := []string{
			p.Date.UTC().Format("2006-01-02"),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			fetchedAt,
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
