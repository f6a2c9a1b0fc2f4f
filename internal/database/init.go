package database

import (
	"context"
	"fmt"

	"github.com/yourusername/alpha-lab/internal/config"
)

// schema holds the DDL for the run store. Kept idempotent so Initialize can
// run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS factor_specs (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT,
	portfolio JSONB NOT NULL,
	params JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS backtest_runs (
	id UUID PRIMARY KEY,
	factor_id UUID NOT NULL,
	factor_name TEXT NOT NULL,
	run_date TIMESTAMPTZ NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	num_splits INT NOT NULL,
	num_tickers INT NOT NULL,
	sharpe DOUBLE PRECISION NOT NULL,
	max_drawdown DOUBLE PRECISION NOT NULL,
	avg_ic DOUBLE PRECISION NOT NULL,
	turnover_monthly DOUBLE PRECISION NOT NULL,
	is_valid BOOLEAN NOT NULL,
	issues JSONB NOT NULL DEFAULT '[]',
	full_results JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_factor ON backtest_runs (factor_id, run_date DESC);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_valid ON backtest_runs (is_valid, sharpe DESC);
`

// Initialize creates a database connection pool and ensures the run-store
// schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
