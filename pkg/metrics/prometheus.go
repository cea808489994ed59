package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal     *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	predictionsTotal *prometheus.CounterVec
	tickerErrors     *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitypulse_provider_fetches_total",
				Help: "Total number of provider fetch attempts",
			},
			[]string{"provider", "outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitypulse_price_cache_events_total",
				Help: "Price cache events (hit, miss, stale, save)",
			},
			[]string{"frequency", "event"},
		),
		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitypulse_predictions_total",
				Help: "Total number of predictions produced",
			},
			[]string{"direction"},
		),
		tickerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitypulse_ticker_errors_total",
				Help: "Per-ticker pipeline failures by stage",
			},
			[]string{"stage"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equitypulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records a provider fetch attempt outcome.
func (r *Recorder) RecordFetch(provider, outcome string) {
	r.fetchesTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordCacheEvent records a price cache event.
func (r *Recorder) RecordCacheEvent(freq, event string) {
	r.cacheEvents.WithLabelValues(freq, event).Inc()
}

// RecordPrediction records a produced prediction by direction.
func (r *Recorder) RecordPrediction(direction string) {
	r.predictionsTotal.WithLabelValues(direction).Inc()
}

// RecordTickerError records a per-ticker pipeline failure.
func (r *Recorder) RecordTickerError(stage string) {
	r.tickerErrors.WithLabelValues(stage).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
