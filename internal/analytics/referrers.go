package analytics

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"sitepulse/internal/pkg/referrers"
	"sitepulse/internal/timeframe"
)

// ReferrerStats is one referrer source category and its visit count.
type ReferrerStats struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// GetReferrers groups the window's visits into referrer source categories,
// descending by count with the source name as a stable tiebreak. Grouping by
// raw referrer first keeps the classification pass proportional to distinct
// referrers rather than visits.
func GetReferrers(db *gorm.DB, r timeframe.DateRange) ([]ReferrerStats, error) {
	var rows []struct {
		Referrer string
		Count    int64
	}

	query := `
    SELECT referrer, COUNT(id) AS count
    FROM visits
    WHERE started_at >= ? AND started_at < ?
    GROUP BY referrer
    `

	if err := db.Raw(query, r.Start, r.End).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying referrers: %w", err)
	}

	bySource := make(map[string]int64)
	for _, row := range rows {
		bySource[referrers.Classify(row.Referrer)] += row.Count
	}

	stats := make([]ReferrerStats, 0, len(bySource))
	for source, count := range bySource {
		stats = append(stats, ReferrerStats{Source: source, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Source < stats[j].Source
	})
	return stats, nil
}
