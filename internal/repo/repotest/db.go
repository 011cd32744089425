// Package repotest 单测用的内存 SQLite 库
package repotest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"acquisitions/internal/core/database"
	"acquisitions/internal/feature/user"
)

// NewDB 每次调用都是一个独立的空库，已建好 users 表
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, user.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
