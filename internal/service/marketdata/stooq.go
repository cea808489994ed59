package marketdata

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	apphttp "EquityPulse/pkg/http"
)

// StooqSource fetches daily close prices from the Stooq CSV endpoint.
type StooqSource struct {
	client  *apphttp.Client
	baseURL string
}

// NewStooqSource creates a Stooq CSV source.
func NewStooqSource(client *apphttp.Client, baseURL string) *StooqSource {
	if baseURL == "" {
		baseURL = "https://stooq.com"
	}
	return &StooqSource{client: client, baseURL: baseURL}
}

func (s *StooqSource) Name() string { return "stooq" }

// stooqSymbol maps a plain US ticker to stooq notation (aapl.us). Symbols
// already carrying a market suffix pass through unchanged.
func stooqSymbol(ticker string) string {
	t := strings.ToLower(ticker)
	if strings.Contains(t, ".") {
		return t
	}
	return t + ".us"
}

func (s *StooqSource) Fetch(ctx context.Context, ticker string, _ repository.Frequency) (*models.PriceSeries, error) {
	var body []byte
	err := s.client.SendAndParse(ctx, &apphttp.RequestOptions{
		URL: s.baseURL + "/q/d/l/",
		QueryParams: map[string][]string{
			"s": {stooqSymbol(ticker)},
			"i": {"d"},
		},
	}, &body)
	if err != nil {
		return nil, err
	}

	series, err := parseStooqCSV(ticker, body)
	if err != nil {
		return nil, err
	}
	return series, nil
}

// parseStooqCSV parses the Date,Open,High,Low,Close[,Volume] layout. Stooq
// answers unknown symbols with a one-line "No data" body rather than an
// HTTP error.
func parseStooqCSV(ticker string, body []byte) (*models.PriceSeries, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.HasPrefix(trimmed, []byte("No data")) {
		return nil, fmt.Errorf("no data for symbol")
	}

	r := csv.NewReader(bytes.NewReader(trimmed))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	header := records[0]
	dateIdx, closeIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "close":
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("csv missing date/close columns")
	}

	raw := make([]models.PricePoint, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) <= dateIdx || len(rec) <= closeIdx {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[dateIdx]))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[closeIdx]), 64)
		if err != nil {
			continue
		}
		raw = append(raw, models.PricePoint{Date: date.UTC(), Price: price})
	}

	return models.Normalize(ticker, raw), nil
}
