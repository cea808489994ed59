package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EquityPulse/internal/domain/repository"
	apphttp "EquityPulse/pkg/http"
)

func TestYahooSourceFetch(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("unexpected interval %s", got)
		}
		fmt.Fprintf(w, `{
			"chart": {
				"result": [{
					"timestamp": [%d, %d, %d],
					"indicators": {"quote": [{"close": [185.64, null, 181.91]}]}
				}],
				"error": null
			}
		}`, base.Unix(), base.AddDate(0, 0, 1).Unix(), base.AddDate(0, 0, 2).Unix())
	}))
	defer srv.Close()

	src := NewYahooSource(apphttp.NewClient(), srv.URL)
	series, err := src.Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// the null close drops out
	if series.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", series.Len())
	}
	if series.Last().Price != 181.91 {
		t.Fatalf("unexpected last close %v", series.Last().Price)
	}
}

func TestYahooSourceChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`))
	}))
	defer srv.Close()

	src := NewYahooSource(apphttp.NewClient(), srv.URL)
	if _, err := src.Fetch(context.Background(), "NOPE", repository.FreqDaily); err == nil {
		t.Fatalf("expected chart error")
	}
}

func TestAlphaVantageWithoutKeySkips(t *testing.T) {
	src := NewAlphaVantageSource(apphttp.NewClient(), "", "")
	_, err := src.Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestAlphaVantageFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "demo" {
			t.Errorf("unexpected api key %s", got)
		}
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-02": {"4. close": "186.00", "5. adjusted close": "185.64"},
				"2024-01-03": {"4. close": "184.25"}
			}
		}`))
	}))
	defer srv.Close()

	src := NewAlphaVantageSource(apphttp.NewClient(), srv.URL, "demo")
	series, err := src.Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", series.Len())
	}
	// adjusted close preferred over plain close
	if series.Points[0].Price != 185.64 {
		t.Fatalf("expected adjusted close, got %v", series.Points[0].Price)
	}
}

func TestAlphaVantageThrottleIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 25 requests per day."}`))
	}))
	defer srv.Close()

	src := NewAlphaVantageSource(apphttp.NewClient(), srv.URL, "demo")
	if _, err := src.Fetch(context.Background(), "AAPL", repository.FreqDaily); err == nil {
		t.Fatalf("expected throttle error")
	}
}
