package scheduler

import (
	"context"
	"fmt"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/usecase"
	"EquityPulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers batch prediction runs on a cron spec over a fixed
// ticker universe.
type Scheduler struct {
	cron        *cron.Cron
	orch        *usecase.Orchestrator
	log         *logger.Logger
	spec        string
	tickers     []string
	horizonDays int
	maxParallel int
}

// New creates a scheduler. spec uses standard 5-field cron syntax.
func New(orch *usecase.Orchestrator, log *logger.Logger, spec string, tickers []string, horizonDays, maxParallel int) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		orch:        orch,
		log:         log,
		spec:        spec,
		tickers:     tickers,
		horizonDays: horizonDays,
		maxParallel: maxParallel,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if len(s.tickers) == 0 {
		return fmt.Errorf("scheduler: no tickers configured")
	}

	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("scheduler: bad cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		logger.String("spec", s.spec),
		logger.Int("tickers", len(s.tickers)),
	)
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	state, err := s.orch.Execute(ctx, &models.RunRequest{
		Tickers:     s.tickers,
		HorizonDays: s.horizonDays,
		MaxParallel: s.maxParallel,
		Frequency:   "daily",
	})
	if err != nil {
		s.log.Error("scheduled run failed", logger.Error(err))
		return
	}

	s.log.Info("scheduled run done",
		logger.String("run_id", state.RunID),
		logger.String("status", state.Status),
		logger.Int("stored", state.Stored),
	)
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
