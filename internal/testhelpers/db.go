// Package testhelpers holds fixtures shared by package tests.
package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dkeye/Messenger/internal/adapters/store"
	"github.com/dkeye/Messenger/internal/domain"
)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := store.Open(context.Background(), store.Config{
		Driver:   store.DriverSQLite,
		DSN:      dsn,
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

// SeedUsers registers each name with password "secret" and email name@example.com.
func SeedUsers(t testing.TB, users *store.UserRepository, names ...string) {
	t.Helper()
	for _, name := range names {
		u, err := domain.NewUser(name, name+"@example.com")
		require.NoError(t, err)
		require.NoError(t, users.Create(context.Background(), u, "secret"))
	}
}
