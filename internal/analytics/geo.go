package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// GeoStats is one (country, city) pair and its visit count.
type GeoStats struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Count   int64  `json:"count"`
}

// GetGeo returns visit counts per (country, city), descending by count.
// Visits with no resolved country are excluded rather than shown as an
// empty bucket.
func GetGeo(db *gorm.DB, r timeframe.DateRange) ([]GeoStats, error) {
	var stats []GeoStats

	query := `
    SELECT country, city, COUNT(id) AS count
    FROM visits
    WHERE started_at >= ? AND started_at < ? AND country != ''
    GROUP BY country, city
    ORDER BY count DESC, country ASC, city ASC
    `

	if err := db.Raw(query, r.Start, r.End).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("error querying geography: %w", err)
	}
	return stats, nil
}
