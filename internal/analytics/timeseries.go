package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// Timeseries metrics the caller may request. Anything else silently falls
// back to sessions.
const (
	MetricSessions  = "sessions"
	MetricPageviews = "pageviews"
)

// TimeseriesPoint is one calendar day's count.
type TimeseriesPoint struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// GetTimeseries returns daily counts of the requested metric across the
// window, ascending by day. Days with no data produce no point.
func GetTimeseries(db *gorm.DB, r timeframe.DateRange, metric string) ([]TimeseriesPoint, error) {
	if metric != MetricSessions && metric != MetricPageviews {
		metric = MetricSessions
	}

	var query string
	switch metric {
	case MetricPageviews:
		query = `
			SELECT strftime('%Y-%m-%d', created_at) AS day, COUNT(id) AS count
			FROM page_views
			WHERE created_at >= ? AND created_at < ?
			GROUP BY day
			ORDER BY day ASC
		`
	default:
		query = `
			SELECT strftime('%Y-%m-%d', started_at) AS day, COUNT(id) AS count
			FROM visits
			WHERE started_at >= ? AND started_at < ?
			GROUP BY day
			ORDER BY day ASC
		`
	}

	var points []TimeseriesPoint
	if err := db.Raw(query, r.Start, r.End).Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("error querying %s timeseries: %w", metric, err)
	}
	return points, nil
}
