package analytics

import (
	"fmt"
	"sort"

	"gorm.io/gorm"

	"sitepulse/internal/pkg/stats"
	"sitepulse/internal/timeframe"
)

// PerformanceStats is one path's 75th-percentile web vitals. Durations are
// milliseconds at 2 decimals, CLS is a unitless score at 4 decimals.
type PerformanceStats struct {
	Path    string  `json:"path"`
	Samples int64   `json:"samples"`
	P75TTFB float64 `json:"p75_ttfb_ms"`
	P75FCP  float64 `json:"p75_fcp_ms"`
	P75LCP  float64 `json:"p75_lcp_ms"`
	P75CLS  float64 `json:"p75_cls"`
}

// GetPerformance computes per-path p75 of TTFB, FCP, LCP and CLS over all
// non-null samples in the window, sorted by p75 LCP descending. Percentiles
// are interpolated in process; the sample volume per path is small enough
// that pulling the rows beats reimplementing percentile logic in SQL.
func GetPerformance(db *gorm.DB, r timeframe.DateRange) ([]PerformanceStats, error) {
	var rows []struct {
		Path   string
		TTFBMs *float64
		FCPMs  *float64
		LCPMs  *float64
		CLS    *float64
	}

	query := `
    SELECT path, ttfb_ms, fcp_ms, lcp_ms, cls
    FROM performances
    WHERE created_at >= ? AND created_at < ?
    `

	if err := db.Raw(query, r.Start, r.End).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying performance samples: %w", err)
	}

	type samples struct {
		count int64
		ttfb  []float64
		fcp   []float64
		lcp   []float64
		cls   []float64
	}
	byPath := make(map[string]*samples)
	for _, row := range rows {
		s := byPath[row.Path]
		if s == nil {
			s = &samples{}
			byPath[row.Path] = s
		}
		s.count++
		if row.TTFBMs != nil {
			s.ttfb = append(s.ttfb, *row.TTFBMs)
		}
		if row.FCPMs != nil {
			s.fcp = append(s.fcp, *row.FCPMs)
		}
		if row.LCPMs != nil {
			s.lcp = append(s.lcp, *row.LCPMs)
		}
		if row.CLS != nil {
			s.cls = append(s.cls, *row.CLS)
		}
	}

	results := make([]PerformanceStats, 0, len(byPath))
	for path, s := range byPath {
		results = append(results, PerformanceStats{
			Path:    path,
			Samples: s.count,
			P75TTFB: round2(stats.Percentile(s.ttfb, 0.75)),
			P75FCP:  round2(stats.Percentile(s.fcp, 0.75)),
			P75LCP:  round2(stats.Percentile(s.lcp, 0.75)),
			P75CLS:  round4(stats.Percentile(s.cls, 0.75)),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].P75LCP != results[j].P75LCP {
			return results[i].P75LCP > results[j].P75LCP
		}
		return results[i].Path < results[j].Path
	})
	return results, nil
}
