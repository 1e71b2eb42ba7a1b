package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
)

// PurgeCounts reports how many rows a purge removed per entity.
type PurgeCounts struct {
	PageViews    int64
	Events       int64
	Performances int64
	ErrorLogs    int64
	Visits       int64
}

// Total returns the sum across all entities.
func (c PurgeCounts) Total() int64 {
	return c.PageViews + c.Events + c.Performances + c.ErrorLogs + c.Visits
}

// RetentionJob deletes tracking data older than the configured retention
// window. Rollup rows are kept: they carry no per-visitor data and stay
// useful for long-range reports after the raw rows are gone.
type RetentionJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewRetentionJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *RetentionJob {
	return &RetentionJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run purges everything older than now minus the retention window.
func (j *RetentionJob) Run() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.RetentionDays)

	j.logger.Info("Starting retention purge",
		slog.Int("retention_days", j.cfg.RetentionDays),
		slog.Time("cutoff", cutoff))

	counts, err := PurgeBefore(j.dbManager.GetConnection(), cutoff)
	if err != nil {
		return err
	}

	if counts.Total() == 0 {
		j.logger.Debug("Nothing to purge")
		return nil
	}

	j.logger.Info("Retention purge finished",
		slog.Int64("page_views", counts.PageViews),
		slog.Int64("events", counts.Events),
		slog.Int64("performances", counts.Performances),
		slog.Int64("error_logs", counts.ErrorLogs),
		slog.Int64("visits", counts.Visits))
	return nil
}

// PurgeBefore deletes all tracking rows older than cutoff and returns the
// per-entity counts. Child rows go first, in the same transaction as their
// visits, so a crash mid-purge never leaves orphans. Re-running with the
// same cutoff is a no-op.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (PurgeCounts, error) {
	var counts PurgeCounts

	// Children are removed when they are old themselves or belong to a
	// visit that is about to be removed.
	childTables := []struct {
		table string
		count *int64
	}{
		{"page_views", &counts.PageViews},
		{"events", &counts.Events},
		{"performances", &counts.Performances},
		{"error_logs", &counts.ErrorLogs},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, child := range childTables {
			query := fmt.Sprintf(`
				DELETE FROM %s
				WHERE created_at < ?
				OR visit_id IN (SELECT id FROM visits WHERE started_at < ?)
			`, child.table)
			res := tx.Exec(query, cutoff, cutoff)
			if res.Error != nil {
				return fmt.Errorf("error purging %s: %w", child.table, res.Error)
			}
			*child.count = res.RowsAffected
		}

		res := tx.Exec(`DELETE FROM visits WHERE started_at < ?`, cutoff)
		if res.Error != nil {
			return fmt.Errorf("error purging visits: %w", res.Error)
		}
		counts.Visits = res.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeCounts{}, err
	}
	return counts, nil
}
