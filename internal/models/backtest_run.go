package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestRun is the persisted summary of one walk-forward backtest.
// FullResults carries the serialized result object for later inspection.
type BacktestRun struct {
	ID          uuid.UUID `json:"id"`
	FactorID    uuid.UUID `json:"factor_id"`
	FactorName  string    `json:"factor_name"`
	RunDate     time.Time `json:"run_date"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	NumSplits   int       `json:"num_splits"`
	NumTickers  int       `json:"num_tickers"`
	Sharpe      float64   `json:"sharpe"`
	MaxDrawdown float64   `json:"max_drawdown"`
	AvgIC       float64   `json:"avg_ic"`
	Turnover    float64   `json:"turnover_monthly"`
	IsValid     bool      `json:"is_valid"`
	Issues      []Issue   `json:"issues"`
	FullResults []byte    `json:"full_results,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
