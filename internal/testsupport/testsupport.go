// Package testsupport provides shared helpers for sitepulse tests.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal/rollups"
	"sitepulse/internal/tracking"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// allModels returns all sitepulse models for migration
func allModels() []any {
	return []any{
		&tracking.Visit{},
		&tracking.PageView{},
		&tracking.Event{},
		&tracking.Performance{},
		&tracking.ErrorLog{},
		&rollups.DailyRollup{},
	}
}

// SetupTestDB creates a test database with all sitepulse models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test. Caches the database
// by root test name so multiple calls within the same test return the same
// database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tableNames {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewVisitorID returns a fresh stable visitor identifier.
func NewVisitorID() string {
	return uuid.NewString()
}

// CreateTestVisit creates a visit directly in the database.
func CreateTestVisit(t *testing.T, db *gorm.DB, visit tracking.Visit) tracking.Visit {
	t.Helper()

	if visit.SessionID == "" {
		visit.SessionID = NewSessionID()
	}
	if visit.VisitorID == "" {
		visit.VisitorID = NewVisitorID()
	}
	if visit.StartedAt.IsZero() {
		visit.StartedAt = time.Now().UTC()
	}
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = visit.StartedAt
	}
	if visit.UpdatedAt.IsZero() {
		visit.UpdatedAt = visit.StartedAt
	}
	require.NoError(t, db.Create(&visit).Error)
	return visit
}

// CreateTestPageView creates a page view for a visit.
func CreateTestPageView(t *testing.T, db *gorm.DB, visitID uint, path string, durationMs *int64, createdAt time.Time) tracking.PageView {
	t.Helper()

	pv := tracking.PageView{
		VisitID:    visitID,
		Path:       path,
		DurationMs: durationMs,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(&pv).Error)
	return pv
}

// CreateTestEvent creates a custom event for a visit.
func CreateTestEvent(t *testing.T, db *gorm.DB, visitID uint, category, action, label, path string, createdAt time.Time) tracking.Event {
	t.Helper()

	ev := tracking.Event{
		VisitID:   visitID,
		Category:  category,
		Action:    action,
		Label:     label,
		Path:      path,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}

// CreateTestPerformance creates a performance sample for a visit.
func CreateTestPerformance(t *testing.T, db *gorm.DB, visitID uint, path string, ttfb, fcp, lcp, cls *float64, createdAt time.Time) tracking.Performance {
	t.Helper()

	perf := tracking.Performance{
		VisitID:   visitID,
		Path:      path,
		TTFBMs:    ttfb,
		FCPMs:     fcp,
		LCPMs:     lcp,
		CLS:       cls,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&perf).Error)
	return perf
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
