package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/alpha-lab/internal/database"
	"github.com/yourusername/alpha-lab/internal/models"
)

const (
	errScanRun = "failed to scan backtest run: %w"

	runColumns = `id, factor_id, factor_name, run_date, start_date, end_date,
	       num_splits, num_tickers, sharpe, max_drawdown, avg_ic, turnover_monthly,
	       is_valid, issues, full_results, created_at`
)

// PostgresRunRepository implements BacktestRunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new backtest run repository
func NewPostgresRunRepository(db *database.DB) BacktestRunRepository {
	return &PostgresRunRepository{db: db}
}

// Save inserts a completed backtest run
func (r *PostgresRunRepository) Save(ctx context.Context, run *models.BacktestRun) error {
	issues, err := json.Marshal(run.Issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (id, factor_id, factor_name, run_date, start_date, end_date,
			num_splits, num_tickers, sharpe, max_drawdown, avg_ic, turnover_monthly,
			is_valid, issues, full_results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		run.ID, run.FactorID, run.FactorName, run.RunDate, run.StartDate, run.EndDate,
		run.NumSplits, run.NumTickers, run.Sharpe, run.MaxDrawdown, run.AvgIC, run.Turnover,
		run.IsValid, issues, run.FullResults,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}

	return nil
}

// GetByID retrieves a backtest run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE id = $1`

	run, err := scanRun(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}

	return run, nil
}

// GetByFactorID retrieves the most recent runs for a factor
func (r *PostgresRunRepository) GetByFactorID(ctx context.Context, factorID uuid.UUID, limit int) ([]*models.BacktestRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE factor_id = $1
		ORDER BY run_date DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, factorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by factor: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// GetLatest retrieves the most recent runs across all factors
func (r *PostgresRunRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		ORDER BY run_date DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// GetByDateRange retrieves runs within a date range
func (r *PostgresRunRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE run_date >= $1 AND run_date <= $2
		ORDER BY run_date DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by date range: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// GetTopPerforming retrieves the highest-Sharpe valid runs
func (r *PostgresRunRepository) GetTopPerforming(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE is_valid = true
		ORDER BY sharpe DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top performing runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.BacktestRun, error) {
	run := &models.BacktestRun{}
	var issues []byte
	err := row.Scan(
		&run.ID, &run.FactorID, &run.FactorName, &run.RunDate, &run.StartDate, &run.EndDate,
		&run.NumSplits, &run.NumTickers, &run.Sharpe, &run.MaxDrawdown, &run.AvgIC, &run.Turnover,
		&run.IsValid, &issues, &run.FullResults, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &run.Issues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
		}
	}
	return run, nil
}

func collectRuns(rows pgx.Rows) ([]*models.BacktestRun, error) {
	var runs []*models.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanRun, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
