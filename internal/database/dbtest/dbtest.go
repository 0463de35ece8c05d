// Package dbtest opens migrated in-memory databases for package tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/eckreceive/internal/database"
	"github.com/xelth-com/eckreceive/internal/logging"
)

// New returns a fresh in-memory database with every table migrated. It is
// closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// one connection, or each would see its own empty memory database
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := database.Wrap(gdb, logging.Nop())
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return gdb
}
