package marketdata

import (
	"fmt"
	"strings"

	"EquityPulse/internal/domain/models"
)

// FailureKind classifies why a single provider attempt failed.
type FailureKind string

const (
	FailNetwork     FailureKind = "network"
	FailDecode      FailureKind = "decode"
	FailEmpty       FailureKind = "empty"
	FailSkipped     FailureKind = "skipped"
	FailBreakerOpen FailureKind = "breaker_open"
)

// ProviderError is one failed attempt against one provider.
type ProviderError struct {
	Provider string
	Ticker   string
	Kind     FailureKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s(%s): %s: %v", e.Provider, e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s(%s): %s", e.Provider, e.Ticker, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChainError aggregates every provider failure for a ticker. It unwraps to
// models.ErrDataUnavailable so callers can match with errors.Is.
type ChainError struct {
	Ticker   string
	Failures []*ProviderError
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("all providers failed for %s: [%s]", e.Ticker, strings.Join(parts, "; "))
}

func (e *ChainError) Unwrap() error { return models.ErrDataUnavailable }
