package util

import "testing"

func TestNormalizeTicker(t *testing.T) {
	if got := NormalizeTicker("  aapl "); got != "AAPL" {
		t.Fatalf("unexpected ticker %q", got)
	}
}

func TestNormalizeTickersDedup(t *testing.T) {
	got := NormalizeTickers([]string{"aapl", "MSFT", "", " AAPL ", "msft"})
	if len(got) != 2 {
		t.Fatalf("expected 2 tickers, got %v", got)
	}
	if got[0] != "AAPL" || got[1] != "MSFT" {
		t.Fatalf("order not preserved: %v", got)
	}
}

func TestSafeFileTicker(t *testing.T) {
	if got := SafeFileTicker("^GSPC"); got != "GSPC" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SafeFileTicker("BRK/B"); got != "BRK_B" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("expected default on junk, got %d", got)
	}
}
