// Package internal contains core application functionality
package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/jobs"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/tracking"
)

// Application wires the sitepulse components: config, logger, database, geo
// resolver, tracker and the background job scheduler. There is no HTTP
// surface; ingestion and reporting are consumed as library calls.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Geo       *geoip.Resolver
	Tracker   *tracking.Tracker
	Scheduler *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geo := geoip.NewResolver(cfg, logger)
	tracker := tracking.NewTracker(dbManager.GetConnection(), geo, logger)

	scheduler, err := jobs.NewScheduler(dbManager, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Geo:       geo,
		Tracker:   tracker,
		Scheduler: scheduler,
	}, nil
}

// StartAsync starts the background job scheduler. It returns immediately;
// jobs run on their own tickers until Shutdown.
func (a *Application) StartAsync() error {
	return a.Scheduler.Start()
}

// Shutdown stops the scheduler and closes the database. The WAL checkpoint
// flushes pending pages so the database file is complete on disk.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	a.Geo.Close()

	if err := a.DBManager.CheckpointWAL("FULL"); err != nil {
		a.Logger.Warn("Failed to checkpoint WAL during shutdown", slog.Any("error", err))
	}

	db := a.DBManager.GetConnection()
	if db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				return fmt.Errorf("error closing database: %w", err)
			}
		}
	}
	return nil
}
