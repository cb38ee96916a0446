// Package dbtest provides migrated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"foodgram/database"
)

var seq atomic.Int64

// New returns a fresh, migrated database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:foodgram-test-%d-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(), seq.Add(1))
	db, err := database.Open(sqlite.Open(dsn), time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
