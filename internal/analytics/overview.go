package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// Totals are the headline numbers for a window.
type Totals struct {
	Sessions       int64   `json:"sessions"`
	UniqueVisitors int64   `json:"unique_visitors"`
	Pageviews      int64   `json:"pageviews"`
	AvgTimeSec     float64 `json:"avg_time_sec"`
	BounceRate     float64 `json:"bounce_rate"`
	Conversions    int64   `json:"conversions"`
}

// Change holds period-over-period deltas against the equal-length preceding
// window.
type Change struct {
	Sessions  float64 `json:"sessions"`
	Pageviews float64 `json:"pageviews"`
}

// Overview is the dashboard headline report.
type Overview struct {
	Range        string `json:"range"`
	Totals       Totals `json:"totals"`
	ChangeVsPrev Change `json:"change_vs_prev"`
}

// GetOverview computes the headline totals for the window plus the change
// versus the immediately preceding window of equal length. The overview
// always reads the raw tables: distinct visitors and bounce rate cannot be
// reconstructed from per-path rollup rows.
func GetOverview(db *gorm.DB, r timeframe.DateRange) (Overview, error) {
	prev := timeframe.Previous(r)

	var sessions int64
	err := db.Raw(`SELECT COUNT(id) FROM visits WHERE started_at >= ? AND started_at < ?`,
		r.Start, r.End).Scan(&sessions).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting sessions: %w", err)
	}

	var uniqueVisitors int64
	err = db.Raw(`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE started_at >= ? AND started_at < ?`,
		r.Start, r.End).Scan(&uniqueVisitors).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting unique visitors: %w", err)
	}

	var pageviews int64
	err = db.Raw(`SELECT COUNT(id) FROM page_views WHERE created_at >= ? AND created_at < ?`,
		r.Start, r.End).Scan(&pageviews).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting page views: %w", err)
	}

	var avgDurationMs float64
	err = db.Raw(`SELECT COALESCE(AVG(duration_ms), 0) FROM page_views WHERE created_at >= ? AND created_at < ?`,
		r.Start, r.End).Scan(&avgDurationMs).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error averaging page duration: %w", err)
	}

	// A bounce is a visit with at most one page view inside the window.
	var bounces int64
	err = db.Raw(`
		SELECT COUNT(*)
		FROM visits v
		WHERE v.started_at >= ? AND v.started_at < ?
		AND (
			SELECT COUNT(*) FROM page_views pv
			WHERE pv.visit_id = v.id AND pv.created_at >= ? AND pv.created_at < ?
		) <= 1`,
		r.Start, r.End, r.Start, r.End).Scan(&bounces).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting bounces: %w", err)
	}

	var conversions int64
	err = db.Raw(`SELECT COUNT(id) FROM events WHERE created_at >= ? AND created_at < ? AND category = ?`,
		r.Start, r.End, "conversion").Scan(&conversions).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting conversions: %w", err)
	}

	var prevSessions int64
	err = db.Raw(`SELECT COUNT(id) FROM visits WHERE started_at >= ? AND started_at < ?`,
		prev.Start, prev.End).Scan(&prevSessions).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting previous sessions: %w", err)
	}

	var prevPageviews int64
	err = db.Raw(`SELECT COUNT(id) FROM page_views WHERE created_at >= ? AND created_at < ?`,
		prev.Start, prev.End).Scan(&prevPageviews).Error
	if err != nil {
		return Overview{}, fmt.Errorf("error counting previous page views: %w", err)
	}

	bounceRate := 0.0
	if sessions > 0 {
		bounceRate = round4(float64(bounces) / float64(sessions))
	}

	avgTimeSec := 0.0
	if avgDurationMs > 0 {
		avgTimeSec = round2(avgDurationMs / 1000)
	}

	return Overview{
		Range: r.Key,
		Totals: Totals{
			Sessions:       sessions,
			UniqueVisitors: uniqueVisitors,
			Pageviews:      pageviews,
			AvgTimeSec:     avgTimeSec,
			BounceRate:     bounceRate,
			Conversions:    conversions,
		},
		ChangeVsPrev: Change{
			Sessions:  changeVsPrev(sessions, prevSessions),
			Pageviews: changeVsPrev(pageviews, prevPageviews),
		},
	}, nil
}
