package models

// Requests for the run HTTP endpoints. Defined in domain for consistency and reuse.

type RunRequest struct {
	Tickers     []string `json:"tickers" validate:"required,min=1,max=200,dive,required"`
	HorizonDays int      `json:"horizon_days" default:"5" validate:"gte=1,lte=60"`
	MaxParallel int      `json:"max_parallel" default:"4" validate:"gte=1,lte=16"`
	Frequency   string   `json:"frequency" default:"daily" validate:"oneof=daily monthly"`
	Retrain     *bool    `json:"retrain,omitempty"`
}

type RunStatusRequest struct {
	RunID string `query:"run_id" json:"run_id" validate:"required"`
}

type SummaryRequest struct {
	RunID string `query:"run_id" json:"run_id"`
	Limit int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=1000"`
}
