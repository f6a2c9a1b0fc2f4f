package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/alpha-lab/internal/models"
)

// FactorSpecRepository defines the interface for factor spec data access
type FactorSpecRepository interface {
	Create(ctx context.Context, spec *models.FactorSpec) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FactorSpec, error)
	GetByName(ctx context.Context, name string) (*models.FactorSpec, error)
	List(ctx context.Context, limit int) ([]*models.FactorSpec, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BacktestRunRepository defines the interface for backtest run persistence
type BacktestRunRepository interface {
	Save(ctx context.Context, run *models.BacktestRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error)
	GetByFactorID(ctx context.Context, factorID uuid.UUID, limit int) ([]*models.BacktestRun, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestRun, error)
	GetTopPerforming(ctx context.Context, limit int) ([]*models.BacktestRun, error)
}
