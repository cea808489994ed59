package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"EquityPulse/internal/domain/models"
	"EquityPulse/pkg/clickhouse"
)

// PredictionStore persists predictions in ClickHouse. The table is
// append-only; realized columns are written by a later scoring pass.
type PredictionStore struct {
	client *clickhouse.Client
}

// NewPredictionStore creates a ClickHouse-backed prediction store.
func NewPredictionStore(client *clickhouse.Client) *PredictionStore {
	return &PredictionStore{client: client}
}

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS predictions (
		run_id             String,
		ticker             String,
		prob_up            Float64,
		exp_return         Float64,
		direction          String,
		horizon_days       Int32,
		as_of_date         Date,
		generated_at       DateTime('UTC'),
		realized_return    Nullable(Float64),
		realized_direction Nullable(String)
	) ENGINE = MergeTree()
	ORDER BY (generated_at, run_id, ticker)`,
}

// Init creates the predictions table if needed.
func (s *PredictionStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, schemaStmts)
}

// InsertBatch appends one run's predictions in a single transaction.
func (s *PredictionStore) InsertBatch(ctx context.Context, preds []models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO predictions
		(run_id, ticker, prob_up, exp_return, direction, horizon_days, as_of_date, generated_at, realized_return, realized_direction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range preds {
		_, err := stmt.ExecContext(ctx,
			p.RunID,
			p.Ticker,
			p.ProbUp,
			p.ExpReturn,
			p.Direction,
			int32(p.HorizonDays),
			p.AsOfDate,
			p.GeneratedAt,
			p.RealizedReturn,
			p.RealizedDirection,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", p.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// GetByRun returns the predictions of one run ordered by ticker.
func (s *PredictionStore) GetByRun(ctx context.Context, runID string, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.client.DB().QueryContext(ctx, `SELECT
			run_id, ticker, prob_up, exp_return, direction, horizon_days,
			as_of_date, generated_at, realized_return, realized_direction
		FROM predictions
		WHERE run_id = ?
		ORDER BY ticker
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var horizon int32
		err := rows.Scan(
			&p.RunID,
			&p.Ticker,
			&p.ProbUp,
			&p.ExpReturn,
			&p.Direction,
			&horizon,
			&p.AsOfDate,
			&p.GeneratedAt,
			&p.RealizedReturn,
			&p.RealizedDirection,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.HorizonDays = int(horizon)
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestRunID returns the run_id with the newest generated_at, or "" when
// the table is empty.
func (s *PredictionStore) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.client.DB().QueryRowContext(ctx,
		`SELECT run_id FROM predictions ORDER BY generated_at DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

// Health pings the backing connection.
func (s *PredictionStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close releases the connection pool.
func (s *PredictionStore) Close() error {
	return s.client.Close()
}
