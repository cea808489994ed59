package marketdata

import (
	"context"
	"fmt"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	apphttp "EquityPulse/pkg/http"
)

// YahooSource fetches close prices from the Yahoo Finance chart endpoint.
// It always pulls daily bars; resampling to coarser frequencies happens in
// the chain.
type YahooSource struct {
	client  *apphttp.Client
	baseURL string
}

// NewYahooSource creates a Yahoo chart API source.
func NewYahooSource(client *apphttp.Client, baseURL string) *YahooSource {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &YahooSource{client: client, baseURL: baseURL}
}

func (s *YahooSource) Name() string { return "yahoo" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) Fetch(ctx context.Context, ticker string, _ repository.Frequency) (*models.PriceSeries, error) {
	var resp yahooChartResponse
	err := s.client.SendAndParse(ctx, &apphttp.RequestOptions{
		URL: fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, ticker),
		QueryParams: map[string][]string{
			"range":    {"10y"},
			"interval": {"1d"},
			"events":   {"div,splits"},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	raw := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		raw = append(raw, models.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Price: *closes[i],
		})
	}

	return models.Normalize(ticker, raw), nil
}
