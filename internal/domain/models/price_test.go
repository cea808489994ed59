package models

import (
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDropsBadRows(t *testing.T) {
	raw := []PricePoint{
		{Date: day(2024, 1, 3), Price: 101},
		{Date: day(2024, 1, 2), Price: 100},
		{Date: time.Time{}, Price: 99},
		{Date: day(2024, 1, 4), Price: math.NaN()},
		{Date: day(2024, 1, 5), Price: -5},
		{Date: day(2024, 1, 6), Price: math.Inf(1)},
	}

	s := Normalize("AAPL", raw)
	if s.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", s.Len())
	}
	if !s.Points[0].Date.Before(s.Points[1].Date) {
		t.Fatalf("not sorted: %v", s.Points)
	}
}

func TestNormalizeDedupKeepsLast(t *testing.T) {
	raw := []PricePoint{
		{Date: day(2024, 1, 2), Price: 100},
		{Date: day(2024, 1, 2), Price: 105},
	}

	s := Normalize("AAPL", raw)
	if s.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", s.Len())
	}
	if s.Points[0].Price != 105 {
		t.Fatalf("expected last value kept, got %v", s.Points[0].Price)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := []PricePoint{
		{Date: day(2024, 1, 2), Price: 100},
		{Date: day(2024, 1, 3), Price: 101},
	}
	once := Normalize("AAPL", raw)
	twice := Normalize("AAPL", once.Points)

	if once.Len() != twice.Len() {
		t.Fatalf("normalize not idempotent: %d vs %d", once.Len(), twice.Len())
	}
	for i := range once.Points {
		if once.Points[i] != twice.Points[i] {
			t.Fatalf("row %d differs", i)
		}
	}
}

func TestMonthlyLast(t *testing.T) {
	raw := []PricePoint{
		{Date: day(2024, 1, 2), Price: 100},
		{Date: day(2024, 1, 31), Price: 110},
		{Date: day(2024, 2, 1), Price: 111},
		{Date: day(2024, 2, 28), Price: 120},
	}

	monthly := Normalize("AAPL", raw).MonthlyLast()
	if monthly.Len() != 2 {
		t.Fatalf("expected 2 monthly points, got %d", monthly.Len())
	}
	if monthly.Points[0].Price != 110 || monthly.Points[1].Price != 120 {
		t.Fatalf("expected last close per month, got %+v", monthly.Points)
	}
}

func TestTrimBefore(t *testing.T) {
	s := Normalize("AAPL", []PricePoint{
		{Date: day(2024, 1, 2), Price: 100},
		{Date: day(2024, 1, 3), Price: 101},
		{Date: day(2024, 1, 4), Price: 102},
	})

	s.TrimBefore(day(2024, 1, 3))
	if s.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", s.Len())
	}
	if !s.Points[0].Date.Equal(day(2024, 1, 3)) {
		t.Fatalf("unexpected first point %v", s.Points[0])
	}
}

func TestDirectionFor(t *testing.T) {
	if DirectionFor(0.5) != DirectionUp {
		t.Fatalf("0.5 should map to UP")
	}
	if DirectionFor(0.49) != DirectionDown {
		t.Fatalf("0.49 should map to DOWN")
	}
}

func TestRunStatePct(t *testing.T) {
	s := RunState{Total: 4, Completed: 1}
	if s.Pct() != 25 {
		t.Fatalf("expected 25, got %v", s.Pct())
	}
	empty := RunState{}
	if empty.Pct() != 100 {
		t.Fatalf("empty run should be 100%%")
	}
}

func TestRunStateSnapshotIsolated(t *testing.T) {
	s := &RunState{RunID: "r", Errors: map[string]string{"AAPL": "boom"}}
	snap := s.Snapshot()
	s.Errors["MSFT"] = "late"
	if len(snap.Errors) != 1 {
		t.Fatalf("snapshot not isolated from source")
	}
}
