package analytics

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"sitepulse/internal/config"
	"sitepulse/internal/rollups"
	"sitepulse/internal/timeframe"
)

// PageStats is one row of the top pages report. ExitRate is carried in the
// shape but always 0 until a real last-page-in-visit computation exists.
type PageStats struct {
	Path           string  `json:"path"`
	Pageviews      int64   `json:"pageviews"`
	UniqueVisitors int64   `json:"unique_visitors"`
	AvgTimeSec     float64 `json:"avg_time_sec"`
	ExitRate       float64 `json:"exit_rate"`
}

// GetTopPages returns per-path pageviews, unique visitors and mean
// time-on-page for the window, descending by pageviews. When the rollup
// table covers every day of the window the report is served from it,
// otherwise it computes from the raw tables. Both paths return the same
// canonical row shape.
func GetTopPages(db *gorm.DB, cfg *config.Config, logger *slog.Logger, r timeframe.DateRange) ([]PageStats, error) {
	covered, err := rollups.Covers(db, cfg, r)
	if err != nil {
		return nil, err
	}
	if covered {
		logger.Debug("Serving top pages from rollups", slog.String("range", r.Key))
		return topPagesFromRollups(db, r)
	}
	return topPagesFromRaw(db, r)
}

func topPagesFromRollups(db *gorm.DB, r timeframe.DateRange) ([]PageStats, error) {
	var rows []struct {
		Path           string
		Pageviews      int64
		UniqueVisitors int64
		AvgDurationMs  float64
	}

	// Mean time is reconstructed as a pageview-weighted average of the
	// daily averages. A naive AVG(avg_duration_ms) would let a one-view
	// day count as much as a thousand-view day.
	query := `
    SELECT
        path,
        SUM(pageviews) AS pageviews,
        SUM(unique_visitors) AS unique_visitors,
        CASE WHEN SUM(pageviews) > 0
            THEN SUM(avg_duration_ms * pageviews) / SUM(pageviews)
            ELSE 0
        END AS avg_duration_ms
    FROM daily_rollups
    WHERE date >= ? AND date <= ?
    GROUP BY path
    ORDER BY pageviews DESC
    `

	if err := db.Raw(query, r.StartDay(), r.EndDay()).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying top pages from rollups: %w", err)
	}

	pages := make([]PageStats, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, PageStats{
			Path:           row.Path,
			Pageviews:      row.Pageviews,
			UniqueVisitors: row.UniqueVisitors,
			AvgTimeSec:     round2(row.AvgDurationMs / 1000),
		})
	}
	return pages, nil
}

func topPagesFromRaw(db *gorm.DB, r timeframe.DateRange) ([]PageStats, error) {
	var rows []struct {
		Path           string
		Pageviews      int64
		UniqueVisitors int64
		AvgDurationMs  float64
	}

	query := `
    SELECT
        pv.path AS path,
        COUNT(pv.id) AS pageviews,
        COUNT(DISTINCT v.visitor_id) AS unique_visitors,
        COALESCE(AVG(pv.duration_ms), 0) AS avg_duration_ms
    FROM page_views pv
    JOIN visits v ON v.id = pv.visit_id
    WHERE pv.created_at >= ? AND pv.created_at < ?
    GROUP BY pv.path
    ORDER BY pageviews DESC
    `

	if err := db.Raw(query, r.Start, r.End).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying top pages: %w", err)
	}

	pages := make([]PageStats, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, PageStats{
			Path:           row.Path,
			Pageviews:      row.Pageviews,
			UniqueVisitors: row.UniqueVisitors,
			AvgTimeSec:     round2(row.AvgDurationMs / 1000),
		})
	}
	return pages, nil
}
