package models

import "time"

// Direction labels for a prediction.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Prediction is the per-ticker output of a run. Immutable once created;
// realized fields are attached later by a scoring pass without touching
// the original columns.
type Prediction struct {
	RunID       string    `json:"run_id"`
	Ticker      string    `json:"ticker"`
	ProbUp      float64   `json:"prob_up"`
	ExpReturn   float64   `json:"exp_return"`
	Direction   string    `json:"direction"`
	HorizonDays int       `json:"horizon_days"`
	AsOfDate    time.Time `json:"as_of_date"`
	GeneratedAt time.Time `json:"generated_at"`

	RealizedReturn    *float64 `json:"realized_return,omitempty"`
	RealizedDirection *string  `json:"realized_direction,omitempty"`
}

// DirectionFor maps a probability to a direction label.
func DirectionFor(probUp float64) string {
	if probUp >= 0.5 {
		return DirectionUp
	}
	return DirectionDown
}
