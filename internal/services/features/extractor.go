package features

import (
	"fmt"
	"math"

	"EquityPulse/internal/domain/models"
)

const (
	// minSeriesLen is the shortest series worth deriving features from.
	minSeriesLen = 30
	// volWindow is the rolling window for return volatility.
	volWindow = 10
)

// Extractor derives model features from a price series.
type Extractor struct{}

// NewExtractor creates a feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Build derives the feature table for one ticker. Rows where any input
// feature is undefined (the warm-up of the moving averages and volatility)
// are dropped. Rows whose forward label is undefined are dropped too, except
// the final row: it is the one the model predicts on, so it stays with
// Target = NaN.
func (e *Extractor) Build(series *models.PriceSeries, horizonDays int) (*models.FeatureTable, error) {
	n := series.Len()
	if n < minSeriesLen {
		return nil, fmt.Errorf("%s: %d points, need %d: %w",
			series.Ticker, n, minSeriesLen, models.ErrInsufficientData)
	}
	if horizonDays < 1 {
		return nil, fmt.Errorf("horizon must be >= 1, got %d", horizonDays)
	}

	prices := series.Prices()

	returns := make([]float64, n)
	returns[0] = math.NaN()
	for i := 1; i < n; i++ {
		returns[i] = prices[i]/prices[i-1] - 1
	}

	ma5 := rollingMean(prices, 5)
	ma10 := rollingMean(prices, 10)
	vol := rollingStd(returns, volWindow)

	rows := make([]models.FeatureRow, 0, n)
	for i := 0; i < n; i++ {
		row := models.FeatureRow{
			Date:       series.Points[i].Date,
			Price:      prices[i],
			Returns:    returns[i],
			MA5:        ma5[i],
			MA10:       ma10[i],
			Volatility: vol[i],
			Target:     math.NaN(),
		}

		if anyNaN(row.Features()) {
			continue
		}

		if i+horizonDays < n {
			if prices[i+horizonDays] > prices[i] {
				row.Target = 1
			} else {
				row.Target = 0
			}
		} else if i != n-1 {
			// unlabeled interior row; only the last one is kept
			continue
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no usable feature rows: %w", series.Ticker, models.ErrInsufficientData)
	}

	return &models.FeatureTable{
		Ticker:      series.Ticker,
		HorizonDays: horizonDays,
		Rows:        rows,
	}, nil
}

func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	for i := range vals {
		sum += vals[i]
		if i >= window {
			sum -= vals[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStd is the sample standard deviation over the trailing window,
// NaN until the window is full or while any input in it is NaN.
func rollingStd(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		start := i - window + 1
		var sum float64
		ok := true
		for j := start; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if !ok {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(window)
		var sq float64
		for j := start; j <= i; j++ {
			d := vals[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

func anyNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
