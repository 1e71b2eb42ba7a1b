package rollups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/config"
	"sitepulse/internal/pkg/async"
)

// buildWorkers bounds how many days a range build processes concurrently.
const buildWorkers = 4

// Builder computes daily per-path aggregates from the raw tracking tables
// and upserts them into the rollup table with replace semantics, so
// rebuilding a day is idempotent.
type Builder struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *slog.Logger
	pool   *async.Pool
}

func NewBuilder(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		db:     db,
		cfg:    cfg,
		logger: logger,
		pool:   async.NewPool(buildWorkers),
	}
}

// pathAggregate is the per-path shape produced by the page view grouping.
type pathAggregate struct {
	Path           string
	Pageviews      int64
	UniqueVisitors int64
	AvgDurationMs  float64
	AvgScroll      float64
}

// pathCount is a generic (path, count) grouping row.
type pathCount struct {
	Path  string
	Count int64
}

// BuildDay computes and upserts the rollups for the UTC day containing t.
// It returns the number of paths written. Disabled rollups make it a no-op;
// a day with no page views upserts nothing.
func (b *Builder) BuildDay(t time.Time) (int, error) {
	if !b.cfg.RollupEnabled {
		b.logger.Info("Daily rollups are disabled")
		return 0, nil
	}

	day := Day(t)
	start, end := day, day.AddDate(0, 0, 1)

	pages, err := b.pageAggregates(start, end)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		b.logger.Debug("No page views to roll up", slog.Time("day", day))
		return 0, nil
	}

	sessionsByPath, err := b.sessionsByLandingPath(start, end)
	if err != nil {
		return 0, err
	}
	conversionsByPath, err := b.conversionsByPath(start, end)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	err = b.db.Transaction(func(tx *gorm.DB) error {
		for _, page := range pages {
			if err := upsertRollup(tx, day, page, sessionsByPath[page.Path], conversionsByPath[page.Path], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	b.logger.Info("Rolled up day",
		slog.Time("day", day),
		slog.Int("paths", len(pages)))
	return len(pages), nil
}

// BuildRange builds every UTC day from `from` through `to` inclusive,
// fanning the days out over the worker pool. It returns the total number of
// paths written across all days and the joined errors of any failed days;
// one bad day does not stop the others.
func (b *Builder) BuildRange(ctx context.Context, from, to time.Time) (int, error) {
	first, last := Day(from), Day(to)
	if last.Before(first) {
		first, last = last, first
	}

	var mu sync.Mutex
	counts := make(map[string]int)
	var tasks []async.Task
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		day := day
		name := day.Format(time.DateOnly)
		tasks = append(tasks, async.Task{
			Name: name,
			Run: func() error {
				n, err := b.BuildDay(day)
				mu.Lock()
				counts[name] = n
				mu.Unlock()
				return err
			},
		})
	}

	// SQLite serializes the writes anyway, but the read side of each day
	// proceeds in parallel.
	results := b.pool.Run(ctx, tasks)

	total := 0
	var errs []error
	for name, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("day %s: %w", name, res.Err))
			continue
		}
		total += counts[name]
	}
	return total, errors.Join(errs...)
}

func (b *Builder) pageAggregates(start, end time.Time) ([]pathAggregate, error) {
	var rows []pathAggregate

	// AVG ignores NULL durations and scroll depths, so sparse samples do
	// not drag the mean toward zero.
	query := `
    SELECT
        pv.path AS path,
        COUNT(pv.id) AS pageviews,
        COUNT(DISTINCT v.visitor_id) AS unique_visitors,
        COALESCE(AVG(pv.duration_ms), 0) AS avg_duration_ms,
        COALESCE(AVG(pv.scroll_depth), 0) AS avg_scroll
    FROM page_views pv
    JOIN visits v ON v.id = pv.visit_id
    WHERE pv.created_at >= ? AND pv.created_at < ?
    GROUP BY pv.path
    `

	if err := b.db.Raw(query, start, end).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error aggregating page views: %w", err)
	}
	return rows, nil
}

func (b *Builder) sessionsByLandingPath(start, end time.Time) (map[string]int64, error) {
	var rows []pathCount

	query := `
    SELECT
        CASE WHEN landing_path = '' THEN '/' ELSE landing_path END AS path,
        COUNT(id) AS count
    FROM visits
    WHERE started_at >= ? AND started_at < ?
    GROUP BY path
    `

	if err := b.db.Raw(query, start, end).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error aggregating sessions: %w", err)
	}

	byPath := make(map[string]int64, len(rows))
	for _, r := range rows {
		byPath[r.Path] = r.Count
	}
	return byPath, nil
}

func (b *Builder) conversionsByPath(start, end time.Time) (map[string]int64, error) {
	var rows []pathCount

	query := `
    SELECT
        CASE WHEN path = '' THEN '/' ELSE path END AS path,
        COUNT(id) AS count
    FROM events
    WHERE created_at >= ? AND created_at < ? AND category = ?
    GROUP BY path
    `

	if err := b.db.Raw(query, start, end, "conversion").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error aggregating conversions: %w", err)
	}

	byPath := make(map[string]int64, len(rows))
	for _, r := range rows {
		byPath[r.Path] = r.Count
	}
	return byPath, nil
}

// upsertRollup replaces the (date, path) row wholesale. Replace, not
// increment: rebuilding a day with unchanged data yields identical contents.
func upsertRollup(tx *gorm.DB, day time.Time, page pathAggregate, sessions, conversions int64, now time.Time) error {
	query := `
		INSERT INTO daily_rollups (
			date, path, sessions, unique_visitors, pageviews,
			avg_duration_ms, avg_scroll, conversions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, path) DO UPDATE SET
			sessions = excluded.sessions,
			unique_visitors = excluded.unique_visitors,
			pageviews = excluded.pageviews,
			avg_duration_ms = excluded.avg_duration_ms,
			avg_scroll = excluded.avg_scroll,
			conversions = excluded.conversions,
			updated_at = excluded.updated_at
	`
	err := tx.Exec(query,
		day, page.Path, sessions, page.UniqueVisitors, page.Pageviews,
		page.AvgDurationMs, page.AvgScroll, conversions, now, now,
	).Error
	if err != nil {
		return fmt.Errorf("error upserting rollup for %s: %w", page.Path, err)
	}
	return nil
}
