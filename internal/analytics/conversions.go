package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// ConversionStats is one conversion goal with its count and its rate against
// total sessions in the window.
type ConversionStats struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Rate  float64 `json:"rate"`
}

// GetConversions groups conversion events by label, falling back to action
// when the label is empty, descending by count. Rate is count over total
// sessions in the window, 0 when there are no sessions.
func GetConversions(db *gorm.DB, r timeframe.DateRange) ([]ConversionStats, error) {
	var sessions int64
	err := db.Raw(`SELECT COUNT(id) FROM visits WHERE started_at >= ? AND started_at < ?`,
		r.Start, r.End).Scan(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}

	var rows []struct {
		Name  string
		Count int64
	}

	query := `
    SELECT
        CASE WHEN label = '' THEN action ELSE label END AS name,
        COUNT(id) AS count
    FROM events
    WHERE created_at >= ? AND created_at < ? AND category = ?
    GROUP BY name
    ORDER BY count DESC, name ASC
    `

	if err := db.Raw(query, r.Start, r.End, "conversion").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying conversions: %w", err)
	}

	stats := make([]ConversionStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, ConversionStats{
			Name:  row.Name,
			Count: row.Count,
			Rate:  rate(row.Count, sessions),
		})
	}
	return stats, nil
}
