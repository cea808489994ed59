package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	apphttp "EquityPulse/pkg/http"
)

// ErrNoAPIKey marks the Alpha Vantage source as unconfigured. The chain
// records it as a skip, not a failure.
var ErrNoAPIKey = errors.New("alphavantage: api key not configured")

// AlphaVantageSource fetches daily adjusted closes from Alpha Vantage.
type AlphaVantageSource struct {
	client  *apphttp.Client
	baseURL string
	apiKey  string
}

// NewAlphaVantageSource creates an Alpha Vantage source. An empty apiKey is
// allowed; Fetch then returns ErrNoAPIKey.
func NewAlphaVantageSource(client *apphttp.Client, baseURL, apiKey string) *AlphaVantageSource {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantageSource{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (s *AlphaVantageSource) Name() string { return "alphavantage" }

type alphaVantageResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
}

func (s *AlphaVantageSource) Fetch(ctx context.Context, ticker string, _ repository.Frequency) (*models.PriceSeries, error) {
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var resp alphaVantageResponse
	err := s.client.SendAndParse(ctx, &apphttp.RequestOptions{
		URL: s.baseURL + "/query",
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY_ADJUSTED"},
			"symbol":     {ticker},
			"outputsize": {"full"},
			"apikey":     {s.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("api error: %s", resp.ErrorMessage)
	}
	if resp.Note != "" {
		// rate limit notice
		return nil, fmt.Errorf("api throttled: %s", resp.Note)
	}
	if len(resp.Series) == 0 {
		return nil, fmt.Errorf("empty time series")
	}

	raw := make([]models.PricePoint, 0, len(resp.Series))
	for dateStr, fields := range resp.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		closeStr, ok := fields["5. adjusted close"]
		if !ok {
			closeStr = fields["4. close"]
		}
		var price float64
		if _, err := fmt.Sscanf(closeStr, "%f", &price); err != nil {
			continue
		}
		raw = append(raw, models.PricePoint{Date: date.UTC(), Price: price})
	}

	return models.Normalize(ticker, raw), nil
}
