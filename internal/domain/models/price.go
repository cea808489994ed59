package models

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrDataUnavailable indicates every price provider failed for a ticker.
	ErrDataUnavailable = errors.New("price data unavailable")

	// ErrInsufficientData indicates a series is too short to work with.
	ErrInsufficientData = errors.New("insufficient price data")
)

// PricePoint is a single close observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is an ordered sequence of (date, price) with unique ascending
// dates and finite prices. Constructed via Normalize; adapters should not
// hand-build one from raw provider rows.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int { return len(s.Points) }

// Last returns the most recent observation.
func (s *PriceSeries) Last() PricePoint {
	if len(s.Points) == 0 {
		return PricePoint{}
	}
	return s.Points[len(s.Points)-1]
}

// Prices returns the close column.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// TrimBefore drops observations older than cutoff.
func (s *PriceSeries) TrimBefore(cutoff time.Time) {
	i := 0
	for i < len(s.Points) && s.Points[i].Date.Before(cutoff) {
		i++
	}
	s.Points = s.Points[i:]
}

// Normalize builds a clean PriceSeries from raw rows: drops non-finite and
// non-positive prices and zero dates, sorts ascending, keeps the last value
// for duplicate dates.
func Normalize(ticker string, raw []PricePoint) *PriceSeries {
	clean := make([]PricePoint, 0, len(raw))
	for _, p := range raw {
		if p.Date.IsZero() {
			continue
		}
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			continue
		}
		p.Date = p.Date.UTC()
		clean = append(clean, p)
	}

	// insertion sort keeps already-sorted provider output cheap
	for i := 1; i < len(clean); i++ {
		for j := i; j > 0 && clean[j].Date.Before(clean[j-1].Date); j-- {
			clean[j], clean[j-1] = clean[j-1], clean[j]
		}
	}

	dedup := clean[:0]
	for _, p := range clean {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(p.Date) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}

	return &PriceSeries{Ticker: ticker, Points: dedup}
}

// MonthlyLast resamples a daily series to one observation per month using
// the last close of each month.
func (s *PriceSeries) MonthlyLast() *PriceSeries {
	out := &PriceSeries{Ticker: s.Ticker}
	for _, p := range s.Points {
		y, m, _ := p.Date.Date()
		if n := len(out.Points); n > 0 {
			ly, lm, _ := out.Points[n-1].Date.Date()
			if ly == y && lm == m {
				out.Points[n-1] = p
				continue
			}
		}
		out.Points = append(out.Points, p)
	}
	return out
}
