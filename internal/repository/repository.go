package repository

import (
	"fmt"

	"github.com/yourusername/alpha-lab/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Factor FactorSpecRepository
	Run    BacktestRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Factor: NewPostgresFactorRepository(db),
		Run:    NewPostgresRunRepository(db),
	}, nil
}
