package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/alpha-lab/internal/config"
)

// SetupTestDB creates a test database connection and verifies it. Tests that
// call this are skipped unless ALPHA_LAB_TEST_DB_HOST is set.
func SetupTestDB(t *testing.T) *DB {
	host := os.Getenv("ALPHA_LAB_TEST_DB_HOST")
	if host == "" {
		t.Skip("ALPHA_LAB_TEST_DB_HOST not set; skipping database test")
	}

	cfg := &config.DatabaseConfig{
		Host:           host,
		Port:           5432,
		Name:           "alpha_lab_test",
		User:           "alpha",
		Password:       os.Getenv("ALPHA_LAB_TEST_DB_PASSWORD"),
		SSLMode:        "disable",
		MaxConnections: 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer verifyCancel()

	if err := db.Ping(verifyCtx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	db.Close()
}
