package usecase

import (
	"sync"

	"EquityPulse/internal/domain/models"
)

// RunRegistry is the in-memory table of run states. Writers go through
// Update so every mutation happens under the lock; readers only ever see
// snapshots.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*models.RunState
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*models.RunState)}
}

// Register adds a new run state.
func (r *RunRegistry) Register(state *models.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[state.RunID] = state
}

// Get returns a snapshot of the run state, if known.
func (r *RunRegistry) Get(runID string) (models.RunState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.runs[runID]
	if !ok {
		return models.RunState{}, false
	}
	return state.Snapshot(), true
}

// Update applies fn to the run state under the write lock.
func (r *RunRegistry) Update(runID string, fn func(*models.RunState)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.runs[runID]; ok {
		fn(state)
	}
}
