package analytics

import (
	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// GetExportRows returns the flat per-path rows used by the tabular export.
// The rows are the raw top pages result; rendering them to a delimited
// format is the caller's concern.
func GetExportRows(db *gorm.DB, r timeframe.DateRange) ([]PageStats, error) {
	return topPagesFromRaw(db, r)
}
