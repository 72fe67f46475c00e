// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/db"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
)

// Open returns an isolated in-memory database migrated with every model.
func Open(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := "file:orchid_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("sql handle: %v", err)
	}
	// One connection: callers must not touch the outer handle inside WithTx.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a *db.Client for services that need WithTx.
func Client(tb testing.TB) *db.Client {
	tb.Helper()
	return db.NewFromGorm(Open(tb))
}
