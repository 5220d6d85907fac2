// Package repotest opens throwaway SQLite databases with the ledger schema
// for tests.
package repotest

import (
	"path/filepath"
	"testing"

	"kobo/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated database backed by a file in t.TempDir().
// The pool is capped at one connection, which serializes transactions the
// way row locks would on PostgreSQL. Code under test must therefore run
// every statement of a transaction through the transaction handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.Migrate(db))
	return db
}

// NewStore wraps NewDB in a repositories.Store.
func NewStore(t testing.TB) (repositories.Store, *gorm.DB) {
	t.Helper()
	db := NewDB(t)
	return repositories.NewStore(db), db
}
