package repository

import "time"

// Frequency of a price series.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqMonthly Frequency = "monthly"
)

// IsValidFrequency returns true if f is a supported frequency.
func IsValidFrequency(f Frequency) bool {
	switch f {
	case FreqDaily, FreqMonthly:
		return true
	default:
		return false
	}
}

// DefaultFrequency returns the default frequency.
func DefaultFrequency() Frequency { return FreqDaily }

// NormalizeFrequency converts a raw string to a valid frequency (or default).
func NormalizeFrequency(s string) Frequency {
	if s == "" {
		return DefaultFrequency()
	}
	f := Frequency(s)
	if IsValidFrequency(f) {
		return f
	}
	return DefaultFrequency()
}

// TTLFor returns how long a cached series of the given frequency stays fresh.
func TTLFor(f Frequency) time.Duration {
	if f == FreqMonthly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}
