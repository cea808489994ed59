package forecast

import (
	"math"

	"EquityPulse/internal/domain/models"
	"EquityPulse/pkg/logger"
)

// Config holds predictor hyperparameters.
type Config struct {
	// Window caps how many of the most recent labeled rows are trained on.
	Window int
	// MinTrain is the fewest labeled rows worth training on; below it the
	// predictor answers a neutral 0.5.
	MinTrain int
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// Forecast is the model output for one ticker.
type Forecast struct {
	ProbUp    float64
	ExpReturn float64
	Direction string
	TrainRows int
	FromCache bool
}

// Predictor trains and applies walk-forward forests per ticker.
type Predictor struct {
	cfg   Config
	cache *ModelCache
	log   *logger.Logger
}

// NewPredictor creates a predictor. The model cache is injected so callers
// own its lifetime and bound.
func NewPredictor(cfg Config, cache *ModelCache, log *logger.Logger) *Predictor {
	return &Predictor{cfg: cfg, cache: cache, log: log}
}

// Predict produces the probability that the ticker closes higher after the
// table's horizon. The final table row is the prediction input; every other
// labeled row is training candidate, windowed to the most recent Window rows.
//
// Degenerate cases answer without a model: too little training data gives a
// neutral 0.5, a single-class window gives that class's indicator value.
func (p *Predictor) Predict(table *models.FeatureTable, retrain bool) (*Forecast, error) {
	if table.Len() == 0 {
		return nil, models.ErrInsufficientData
	}

	last := table.LastRow()

	labeled := make([]models.FeatureRow, 0, table.Len())
	for i, row := range table.Rows {
		if i == table.Len()-1 && !row.HasTarget() {
			continue
		}
		if row.HasTarget() {
			labeled = append(labeled, row)
		}
	}

	if len(labeled) > p.cfg.Window {
		labeled = labeled[len(labeled)-p.cfg.Window:]
	}

	if len(labeled) < p.cfg.MinTrain {
		p.log.Debug("too few training rows, neutral forecast",
			logger.String("ticker", table.Ticker),
			logger.Int("rows", len(labeled)),
		)
		return p.finish(0.5, table, len(labeled), false), nil
	}

	pos := 0
	for _, row := range labeled {
		if row.Target == 1 {
			pos++
		}
	}
	if pos == 0 {
		return p.finish(0.0, table, len(labeled), false), nil
	}
	if pos == len(labeled) {
		return p.finish(1.0, table, len(labeled), false), nil
	}

	model, fromCache := p.model(table, labeled, retrain)

	prob := model.forest.ProbUp(model.scaler.transformRow(last.Features()))
	prob = clamp01(prob)

	return p.finish(prob, table, len(labeled), fromCache), nil
}

func (p *Predictor) model(table *models.FeatureTable, labeled []models.FeatureRow, retrain bool) (*trainedModel, bool) {
	if !retrain {
		if m, ok := p.cache.get(table.Ticker, table.HorizonDays); ok {
			return m, true
		}
	}

	X := make([][]float64, len(labeled))
	y := make([]float64, len(labeled))
	for i, row := range labeled {
		X[i] = row.Features()
		y[i] = row.Target
	}

	scaler := fitScaler(X)
	forest := TrainForest(scaler.transform(X), y, ForestConfig{
		Trees:    p.cfg.Trees,
		MaxDepth: p.cfg.MaxDepth,
		MinLeaf:  p.cfg.MinLeaf,
		Seed:     p.cfg.Seed,
	})

	m := &trainedModel{forest: forest, scaler: scaler, trained: len(labeled)}
	p.cache.put(table.Ticker, table.HorizonDays, m)
	return m, false
}

func (p *Predictor) finish(prob float64, table *models.FeatureTable, trainRows int, fromCache bool) *Forecast {
	return &Forecast{
		ProbUp:    prob,
		ExpReturn: (2*prob - 1) * avgAbsHorizonReturn(table),
		Direction: models.DirectionFor(prob),
		TrainRows: trainRows,
		FromCache: fromCache,
	}
}

// avgAbsHorizonReturn estimates the typical magnitude of a horizon-length
// move from the table itself, pairing rows horizon steps apart.
func avgAbsHorizonReturn(table *models.FeatureTable) float64 {
	h := table.HorizonDays
	rows := table.Rows
	if h < 1 || len(rows) <= h {
		return 0
	}

	var sum float64
	var n int
	for i := 0; i+h < len(rows); i++ {
		if rows[i].Price <= 0 {
			continue
		}
		sum += math.Abs(rows[i+h].Price/rows[i].Price - 1)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
