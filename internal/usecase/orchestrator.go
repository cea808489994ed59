package usecase

import (
	"context"
	"fmt"
	"time"

	"EquityPulse/internal/domain/models"
	"EquityPulse/internal/domain/repository"
	"EquityPulse/internal/service/pricecache"
	"EquityPulse/internal/services/features"
	"EquityPulse/internal/services/forecast"
	"EquityPulse/pkg/logger"
	"EquityPulse/pkg/util"

	"github.com/google/uuid"
)

// Orchestrator runs batch predictions: fan out per ticker, collect results,
// persist, publish. Per-ticker failures are isolated; partial success is a
// normal outcome.
type Orchestrator struct {
	loader    *pricecache.Loader
	extractor *features.Extractor
	predictor *forecast.Predictor
	store     repository.PredictionStore
	publisher repository.EventPublisher
	registry  *RunRegistry
	metrics   repository.Metrics
	log       *logger.Logger
	mode      pricecache.Mode
}

// NewOrchestrator wires the prediction pipeline. publisher may be nil when
// event publishing is disabled.
func NewOrchestrator(
	loader *pricecache.Loader,
	extractor *features.Extractor,
	predictor *forecast.Predictor,
	store repository.PredictionStore,
	publisher repository.EventPublisher,
	registry *RunRegistry,
	metrics repository.Metrics,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		loader:    loader,
		extractor: extractor,
		predictor: predictor,
		store:     store,
		publisher: publisher,
		registry:  registry,
		metrics:   metrics,
		log:       log,
		mode:      pricecache.ModeAuto,
	}
}

// tickerResult is what one worker hands back to the coordinator.
type tickerResult struct {
	ticker     string
	prediction *models.Prediction
	err        error
	stage      string
}

// StartRun registers a run and executes it in the background. The returned
// state is the initial snapshot.
func (o *Orchestrator) StartRun(req *models.RunRequest) (models.RunState, error) {
	tickers := util.NormalizeTickers(req.Tickers)
	if len(tickers) == 0 {
		return models.RunState{}, fmt.Errorf("no valid tickers in request")
	}

	state := &models.RunState{
		RunID:       uuid.NewString(),
		Status:      models.RunStatusRunning,
		Total:       len(tickers),
		Errors:      make(map[string]string),
		StartedAt:   time.Now().UTC(),
		HorizonDays: req.HorizonDays,
	}
	o.registry.Register(state)

	snapshot := state.Snapshot()

	go o.execute(context.Background(), snapshot.RunID, tickers, req)

	return snapshot, nil
}

// Execute runs a batch synchronously. The scheduler uses this entry point;
// the HTTP handler goes through StartRun.
func (o *Orchestrator) Execute(ctx context.Context, req *models.RunRequest) (models.RunState, error) {
	state, err := o.StartRun(req)
	if err != nil {
		return models.RunState{}, err
	}

	// poll until the background run reaches a terminal state
	for {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
		current, ok := o.registry.Get(state.RunID)
		if !ok {
			return state, fmt.Errorf("run %s disappeared", state.RunID)
		}
		if current.Terminal() {
			return current, nil
		}
	}
}

func (o *Orchestrator) execute(ctx context.Context, runID string, tickers []string, req *models.RunRequest) {
	start := time.Now()
	freq := repository.NormalizeFrequency(req.Frequency)
	retrain := req.Retrain == nil || *req.Retrain
	generatedAt := time.Now().UTC()

	results := o.fanOut(ctx, runID, tickers, freq, req.HorizonDays, req.MaxParallel, retrain, generatedAt)

	// Only this goroutine mutates the run state from here on.
	var stored []models.Prediction
	for res := range results {
		o.registry.Update(runID, func(s *models.RunState) {
			s.Completed++
			if res.err != nil {
				s.Errors[res.ticker] = res.err.Error()
			}
		})

		if res.err != nil {
			o.metrics.RecordTickerError(res.stage)
			o.log.Warn("ticker failed",
				logger.String("run_id", runID),
				logger.String("ticker", res.ticker),
				logger.String("stage", res.stage),
				logger.Error(res.err),
			)
			continue
		}

		o.metrics.RecordPrediction(res.prediction.Direction)
		stored = append(stored, *res.prediction)
	}

	if len(stored) > 0 {
		if err := o.store.InsertBatch(ctx, stored); err != nil {
			o.log.Error("prediction store insert failed",
				logger.String("run_id", runID),
				logger.Int("predictions", len(stored)),
				logger.Error(err),
			)
			o.finishRun(runID, models.RunStatusAborted, 0)
			return
		}
	}

	o.publish(ctx, runID, stored)
	o.finishRun(runID, models.RunStatusFinished, len(stored))
	o.metrics.RecordLatency("run", time.Since(start).Seconds())

	o.log.Info("run finished",
		logger.String("run_id", runID),
		logger.Int("total", len(tickers)),
		logger.Int("stored", len(stored)),
		logger.Duration("took", time.Since(start)),
	)
}

func (o *Orchestrator) fanOut(ctx context.Context, runID string, tickers []string, freq repository.Frequency, horizonDays, maxParallel int, retrain bool, generatedAt time.Time) <-chan tickerResult {
	results := make(chan tickerResult, len(tickers))

	if maxParallel <= 1 {
		go func() {
			defer close(results)
			for _, t := range tickers {
				results <- o.processTicker(ctx, runID, t, freq, horizonDays, retrain, generatedAt)
			}
		}()
		return results
	}

	jobs := make(chan string)
	done := make(chan struct{})

	workers := maxParallel
	if workers > len(tickers) {
		workers = len(tickers)
	}

	for w := 0; w < workers; w++ {
		go func() {
			for t := range jobs {
				results <- o.processTicker(ctx, runID, t, freq, horizonDays, retrain, generatedAt)
			}
			done <- struct{}{}
		}()
	}

	go func() {
		for _, t := range tickers {
			jobs <- t
		}
		close(jobs)
		for w := 0; w < workers; w++ {
			<-done
		}
		close(results)
	}()

	return results
}

func (o *Orchestrator) processTicker(ctx context.Context, runID, ticker string, freq repository.Frequency, horizonDays int, retrain bool, generatedAt time.Time) tickerResult {
	loaded, err := o.loader.Load(ctx, ticker, freq, o.mode)
	if err != nil {
		return tickerResult{ticker: ticker, err: err, stage: "load"}
	}

	table, err := o.extractor.Build(loaded.Series, horizonDays)
	if err != nil {
		return tickerResult{ticker: ticker, err: err, stage: "features"}
	}

	fc, err := o.predictor.Predict(table, retrain)
	if err != nil {
		return tickerResult{ticker: ticker, err: err, stage: "predict"}
	}

	return tickerResult{
		ticker: ticker,
		prediction: &models.Prediction{
			RunID:       runID,
			Ticker:      ticker,
			ProbUp:      fc.ProbUp,
			ExpReturn:   fc.ExpReturn,
			Direction:   fc.Direction,
			HorizonDays: horizonDays,
			AsOfDate:    loaded.Series.Last().Date,
			GeneratedAt: generatedAt,
		},
	}
}

func (o *Orchestrator) publish(ctx context.Context, runID string, preds []models.Prediction) {
	if o.publisher == nil || len(preds) == 0 {
		return
	}
	if err := o.publisher.PublishPredictions(ctx, preds); err != nil {
		// downstream notification is best-effort
		o.log.Warn("prediction publish failed",
			logger.String("run_id", runID),
			logger.Error(err),
		)
	}
}

func (o *Orchestrator) finishRun(runID, status string, stored int) {
	now := time.Now().UTC()
	o.registry.Update(runID, func(s *models.RunState) {
		s.Status = status
		s.Stored = stored
		s.FinishedAt = &now
	})
}
