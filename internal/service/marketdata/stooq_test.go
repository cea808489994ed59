package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"EquityPulse/internal/domain/repository"
	apphttp "EquityPulse/pkg/http"
)

const stooqBody = `Date,Open,High,Low,Close,Volume
2024-01-02,184.35,186.40,183.92,185.64,52000000
2024-01-03,184.22,185.88,183.43,184.25,47000000
2024-01-04,182.15,183.09,180.88,181.91,58000000
`

func TestStooqSymbol(t *testing.T) {
	cases := map[string]string{
		"AAPL":   "aapl.us",
		"msft":   "msft.us",
		"SAP.DE": "sap.de",
		"BRK-B":  "brk-b.us",
		"^SPX":   "^spx.us",
		"vod.uk": "vod.uk",
	}
	for in, want := range cases {
		if got := stooqSymbol(in); got != want {
			t.Fatalf("stooqSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseStooqCSV(t *testing.T) {
	series, err := parseStooqCSV("AAPL", []byte(stooqBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", series.Len())
	}
	if series.Last().Price != 181.91 {
		t.Fatalf("unexpected last close %v", series.Last().Price)
	}
	if series.Points[0].Date.After(series.Last().Date) {
		t.Fatalf("series not sorted ascending")
	}
}

func TestParseStooqCSVNoData(t *testing.T) {
	if _, err := parseStooqCSV("NOPE", []byte("No data\n")); err == nil {
		t.Fatalf("expected error for No data body")
	}
}

func TestParseStooqCSVMissingColumns(t *testing.T) {
	body := "Open,High,Low\n1,2,3\n"
	if _, err := parseStooqCSV("AAPL", []byte(body)); err == nil {
		t.Fatalf("expected error for missing date/close columns")
	}
}

func TestParseStooqCSVSkipsMalformedRows(t *testing.T) {
	body := "Date,Close\n2024-01-02,185.64\nnot-a-date,9\n2024-01-03,none\n2024-01-04,181.91\n"
	series, err := parseStooqCSV("AAPL", []byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected malformed rows dropped, got %d points", series.Len())
	}
}

func TestStooqSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/q/d/l/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("s"); got != "aapl.us" {
			t.Errorf("unexpected symbol %s", got)
		}
		w.Write([]byte(stooqBody))
	}))
	defer srv.Close()

	src := NewStooqSource(apphttp.NewClient(), srv.URL)
	series, err := src.Fetch(context.Background(), "AAPL", repository.FreqDaily)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", series.Len())
	}
}
