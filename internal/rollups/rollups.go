// Package rollups maintains the daily per-path aggregate table that backs
// the fast read path of the report engine. Rollup rows are a cache: they are
// always reconstructible from the raw tracking tables.
package rollups

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/config"
	"sitepulse/internal/timeframe"
)

// DailyRollup is one day's aggregates for one path, uniquely keyed by
// (date, path). Only the builder writes this table, via replacing upserts.
type DailyRollup struct {
	ID   uint      `gorm:"primaryKey;autoIncrement"`
	Date time.Time `gorm:"uniqueIndex:idx_rollups_date_path;not null"`
	Path string    `gorm:"uniqueIndex:idx_rollups_date_path;size:512;not null"`

	Sessions       int64
	UniqueVisitors int64
	Pageviews      int64
	AvgDurationMs  float64
	AvgScroll      float64
	Conversions    int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Day truncates t to its UTC midnight, the canonical rollup date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Covers reports whether the rollup table can serve the given window: the
// feature flag must be on and every calendar day the window touches must
// have at least one rollup row. Anything less falls back to raw queries.
func Covers(db *gorm.DB, cfg *config.Config, r timeframe.DateRange) (bool, error) {
	if !cfg.RollupEnabled {
		return false, nil
	}

	var coveredDays int64
	err := db.Model(&DailyRollup{}).
		Where("date >= ? AND date <= ?", r.StartDay(), r.EndDay()).
		Distinct("date").
		Count(&coveredDays).Error
	if err != nil {
		return false, fmt.Errorf("error counting rollup coverage: %w", err)
	}

	return coveredDays == int64(r.DayCount()), nil
}
