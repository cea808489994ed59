package models

import (
	"math"
	"time"
)

// FeatureRow is one derived observation. Target is 1 if the price after the
// horizon is higher than the current price, 0 if not, and NaN when the
// forward price is not yet known (the most recent rows of a series).
type FeatureRow struct {
	Date       time.Time
	Price      float64
	Returns    float64
	MA5        float64
	MA10       float64
	Volatility float64
	Target     float64
}

// Features returns the model input columns in a fixed order.
func (r FeatureRow) Features() []float64 {
	return []float64{r.Returns, r.MA5, r.MA10, r.Volatility}
}

// HasTarget reports whether the row has a defined training label.
func (r FeatureRow) HasTarget() bool { return !math.IsNaN(r.Target) }

// FeatureNames matches the order of FeatureRow.Features.
func FeatureNames() []string {
	return []string{"returns", "ma5", "ma10", "volatility"}
}

// FeatureTable is an ordered set of feature rows for one ticker.
type FeatureTable struct {
	Ticker      string
	HorizonDays int
	Rows        []FeatureRow
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int { return len(t.Rows) }

// LastRow returns the most recent row (the prediction row).
func (t *FeatureTable) LastRow() FeatureRow {
	if len(t.Rows) == 0 {
		return FeatureRow{}
	}
	return t.Rows[len(t.Rows)-1]
}
