package repository

import (
	"context"
	"time"

	"EquityPulse/internal/domain/models"
)

// PriceSource produces a normalized price series from an external provider.
type PriceSource interface {
	// Name identifies the provider in errors and metrics.
	Name() string
	Fetch(ctx context.Context, ticker string, freq Frequency) (*models.PriceSeries, error)
}

// CacheEntry is a cached price series with its fetch timestamp.
type CacheEntry struct {
	Series    *models.PriceSeries
	FetchedAt time.Time
}

// Fresh reports whether the entry is within the TTL as of now.
func (e *CacheEntry) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) <= ttl
}

// PriceCache is durable per-(ticker,frequency) series storage. Load returns
// (nil, nil) when no entry exists or the entry cannot be parsed.
type PriceCache interface {
	Load(ticker string, freq Frequency) (*CacheEntry, error)
	Save(ticker string, freq Frequency, series *models.PriceSeries) error
}

// PredictionStore is the append-only prediction persistence layer.
type PredictionStore interface {
	Init(ctx context.Context) error
	InsertBatch(ctx context.Context, preds []models.Prediction) error
	GetByRun(ctx context.Context, runID string, limit int) ([]models.Prediction, error)
	LatestRunID(ctx context.Context) (string, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher pushes finished predictions to downstream consumers.
type EventPublisher interface {
	PublishPredictions(ctx context.Context, preds []models.Prediction) error
	Close() error
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordFetch(provider string, outcome string)
	RecordCacheEvent(freq string, event string)
	RecordPrediction(direction string)
	RecordTickerError(stage string)
	RecordLatency(op string, seconds float64)
}
