package jobs

import (
	"log/slog"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/rollups"
)

// RollupJob rebuilds the daily rollup for the most recently completed UTC
// day. Partial days are never rolled up, so reports covering today always
// read the raw tables.
type RollupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewRollupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *RollupJob {
	return &RollupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run rolls up yesterday. Rebuilding an already rolled up day is harmless
// because the builder upserts with replace semantics.
func (j *RollupJob) Run() error {
	if !j.cfg.RollupEnabled {
		j.logger.Debug("Rollup job is disabled")
		return nil
	}

	yesterday := rollups.Day(time.Now().UTC().AddDate(0, 0, -1))

	builder := rollups.NewBuilder(j.dbManager.GetConnection(), j.cfg, j.logger)
	paths, err := builder.BuildDay(yesterday)
	if err != nil {
		j.logger.Error("Rollup job failed",
			slog.Time("day", yesterday),
			slog.Any("error", err))
		return err
	}

	j.logger.Info("Rollup job finished",
		slog.Time("day", yesterday),
		slog.Int("paths", paths))
	return nil
}
