// Package analytics implements the read-side reporting queries. Every report
// is a pure read over a window resolved by the timeframe package; reports
// with a per-path shape may be served from the rollup table when it covers
// the window, all others always compute from the raw tracking tables.
package analytics

import (
	"math"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/timeframe"
)

// ResolveRange maps a requested range key to a concrete reporting window,
// using the configured default range as the fallback for unknown keys.
func ResolveRange(cfg *config.Config, key string, now time.Time) timeframe.DateRange {
	return timeframe.Resolve(key, cfg.DefaultRange, now)
}

// round2 rounds to 2 decimal places (seconds and millisecond metrics).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round4 rounds to 4 decimal places (rates and CLS scores).
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// changeVsPrev computes the relative change between two period totals.
// A zero previous period yields 0 rather than a division error; growth from
// nothing is reported as flat, which is the documented contract.
func changeVsPrev(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return round4(float64(current-previous) / float64(previous))
}

// rate computes count/total with a guarded denominator.
func rate(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round4(float64(count) / float64(total))
}
