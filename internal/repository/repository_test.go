package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/alpha-lab/internal/database"
	"github.com/yourusername/alpha-lab/internal/models"
)

// Integration tests. Skipped unless ALPHA_LAB_TEST_DB_HOST is set.

func setupRepos(t *testing.T) (*repositoriesFixture, func()) {
	t.Helper()
	db := database.SetupTestDB(t)

	repos, err := NewRepositories(db)
	if err != nil {
		db.Close()
		t.Fatalf("failed to create repositories: %v", err)
	}

	return &repositoriesFixture{repos: repos}, func() {
		database.TeardownTestDB(t, db)
	}
}

type repositoriesFixture struct {
	repos *Repositories
}

func (f *repositoriesFixture) createFactor(t *testing.T, ctx context.Context, name string) *models.FactorSpec {
	t.Helper()
	spec := models.DefaultFactorSpec(name)
	spec.ID = uuid.New()
	spec.Name = name
	if err := f.repos.Factor.Create(ctx, &spec); err != nil {
		t.Fatalf("failed to create factor: %v", err)
	}
	return &spec
}

// TestFactorRepositoryRoundTrip tests factor creation and retrieval
func TestFactorRepositoryRoundTrip(t *testing.T) {
	f, teardown := setupRepos(t)
	defer teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	spec := f.createFactor(t, ctx, "momentum_12_1")

	retrieved, err := f.repos.Factor.GetByID(ctx, spec.ID)
	if err != nil {
		t.Fatalf("failed to retrieve factor: %v", err)
	}
	if retrieved.Name != spec.Name {
		t.Errorf("expected name %s, got %s", spec.Name, retrieved.Name)
	}

	byName, err := f.repos.Factor.GetByName(ctx, spec.Name)
	if err != nil {
		t.Fatalf("failed to retrieve factor by name: %v", err)
	}
	if byName.ID != spec.ID {
		t.Errorf("expected ID %v, got %v", spec.ID, byName.ID)
	}
}

// TestFactorRepositoryNotFound tests the missing-row error path
func TestFactorRepositoryNotFound(t *testing.T) {
	f, teardown := setupRepos(t)
	defer teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := f.repos.Factor.GetByID(ctx, uuid.New()); err != models.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRunRepositorySaveAndQuery tests run persistence and the ranked queries
func TestRunRepositorySaveAndQuery(t *testing.T) {
	f, teardown := setupRepos(t)
	defer teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	spec := f.createFactor(t, ctx, "value_composite")

	fullResults, _ := json.Marshal(map[string]any{"num_splits": 5})
	run := &models.BacktestRun{
		ID:          uuid.New(),
		FactorID:    spec.ID,
		FactorName:  spec.Name,
		RunDate:     time.Now().UTC(),
		StartDate:   time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NumSplits:   5,
		NumTickers:  120,
		Sharpe:      1.4,
		MaxDrawdown: -0.18,
		AvgIC:       0.04,
		Turnover:    85.0,
		IsValid:     true,
		Issues: []models.Issue{
			{Type: "high_turnover", Severity: models.SeverityWarning, Detail: "85% monthly"},
		},
		FullResults: fullResults,
	}

	if err := f.repos.Run.Save(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	retrieved, err := f.repos.Run.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to retrieve run: %v", err)
	}
	if retrieved.Sharpe != run.Sharpe {
		t.Errorf("expected sharpe %v, got %v", run.Sharpe, retrieved.Sharpe)
	}
	if len(retrieved.Issues) != 1 || retrieved.Issues[0].Type != "high_turnover" {
		t.Errorf("issues did not round-trip: %+v", retrieved.Issues)
	}

	byFactor, err := f.repos.Run.GetByFactorID(ctx, spec.ID, 10)
	if err != nil {
		t.Fatalf("failed to list runs by factor: %v", err)
	}
	if len(byFactor) == 0 {
		t.Errorf("expected at least one run for factor %v", spec.ID)
	}

	top, err := f.repos.Run.GetTopPerforming(ctx, 5)
	if err != nil {
		t.Fatalf("failed to list top runs: %v", err)
	}
	for _, r := range top {
		if !r.IsValid {
			t.Errorf("top-performing list must only contain valid runs: %+v", r.ID)
		}
	}
}
