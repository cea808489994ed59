package models

import "time"

// Run status values. A run finishes even if every ticker failed; aborted is
// reserved for orchestrator-level failures such as an unreachable store.
const (
	RunStatusRunning  = "running"
	RunStatusFinished = "finished"
	RunStatusAborted  = "aborted"
)

// RunState tracks progress of one batch prediction run. Completed only
// increases, and only the coordinating goroutine mutates it.
type RunState struct {
	RunID       string            `json:"run_id"`
	Status      string            `json:"status"`
	Total       int               `json:"total"`
	Completed   int               `json:"completed"`
	Stored      int               `json:"stored"`
	Errors      map[string]string `json:"errors,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	HorizonDays int               `json:"horizon_days"`
}

// Pct returns completion percentage in [0,100].
func (r *RunState) Pct() float64 {
	if r.Total == 0 {
		return 100
	}
	return 100 * float64(r.Completed) / float64(r.Total)
}

// Terminal reports whether the run reached a final state.
func (r *RunState) Terminal() bool {
	return r.Status == RunStatusFinished || r.Status == RunStatusAborted
}

// Snapshot returns a copy safe to hand to readers while the run mutates.
func (r *RunState) Snapshot() RunState {
	cp := *r
	cp.Errors = make(map[string]string, len(r.Errors))
	for k, v := range r.Errors {
		cp.Errors[k] = v
	}
	return cp
}
