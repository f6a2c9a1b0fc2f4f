package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/alpha-lab/internal/database"
	"github.com/yourusername/alpha-lab/internal/models"
)

const errScanFactor = "failed to scan factor spec: %w"

// PostgresFactorRepository implements FactorSpecRepository for PostgreSQL
type PostgresFactorRepository struct {
	db *database.DB
}

// NewPostgresFactorRepository creates a new factor spec repository
func NewPostgresFactorRepository(db *database.DB) FactorSpecRepository {
	return &PostgresFactorRepository{db: db}
}

// Create inserts a new factor spec
func (r *PostgresFactorRepository) Create(ctx context.Context, spec *models.FactorSpec) error {
	portfolio, err := json.Marshal(spec.Portfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	params, err := json.Marshal(spec.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	query := `
		INSERT INTO factor_specs (id, name, description, portfolio, params)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.GetPool().Exec(ctx, query, spec.ID, spec.Name, spec.Description, portfolio, params)
	if err != nil {
		return fmt.Errorf("failed to create factor spec: %w", err)
	}

	return nil
}

// GetByID retrieves a factor spec by ID
func (r *PostgresFactorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FactorSpec, error) {
	query := `SELECT id, name, description, portfolio, params FROM factor_specs WHERE id = $1`

	spec, err := scanFactor(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get factor spec: %w", err)
	}

	return spec, nil
}

// GetByName retrieves a factor spec by its unique name
func (r *PostgresFactorRepository) GetByName(ctx context.Context, name string) (*models.FactorSpec, error) {
	query := `SELECT id, name, description, portfolio, params FROM factor_specs WHERE name = $1`

	spec, err := scanFactor(r.db.GetPool().QueryRow(ctx, query, name))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get factor spec by name: %w", err)
	}

	return spec, nil
}

// List retrieves factor specs ordered by creation time
func (r *PostgresFactorRepository) List(ctx context.Context, limit int) ([]*models.FactorSpec, error) {
	query := `
		SELECT id, name, description, portfolio, params
		FROM factor_specs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list factor specs: %w", err)
	}
	defer rows.Close()

	var specs []*models.FactorSpec
	for rows.Next() {
		spec, err := scanFactor(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanFactor, err)
		}
		specs = append(specs, spec)
	}

	return specs, rows.Err()
}

// Delete removes a factor spec by ID
func (r *PostgresFactorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM factor_specs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete factor spec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanFactor(row rowScanner) (*models.FactorSpec, error) {
	spec := &models.FactorSpec{}
	var portfolio, params []byte
	err := row.Scan(&spec.ID, &spec.Name, &spec.Description, &portfolio, &params)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(portfolio, &spec.Portfolio); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio: %w", err)
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &spec.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}
	return spec, nil
}
