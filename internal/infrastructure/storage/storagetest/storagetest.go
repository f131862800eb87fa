// Package storagetest opens throwaway migrated databases for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akumakusss123/DBT-Antivirus/internal/infrastructure/storage"
	"github.com/akumakusss123/DBT-Antivirus/pkg/config"
)

// Config returns a sqlite configuration rooted in a per-test directory
func Config(t testing.TB) config.DatabaseConfig {
	cfg := config.DefaultConfig().Database
	cfg.Name = filepath.Join(t.TempDir(), "dbt_test.db")
	cfg.MaxOpenConns = 8
	cfg.MaxIdleConns = 8
	cfg.StatementTimeout = 10 * time.Second
	cfg.BusyTimeout = 10 * time.Second
	return cfg
}

// New opens a migrated sqlite database that is closed when the test ends
func New(t testing.TB) *storage.DB {
	t.Helper()

	db, err := storage.Open(context.Background(), Config(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}
