// main.go - Admin control tool for sitepulse
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepulse/internal"
	"sitepulse/internal/jobs"
	"sitepulse/internal/rollups"
	"sitepulse/internal/tracking"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&RollupCommand{},
	&PurgeCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Cleanup error: %v", err)
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Usage: spctl [command] [args...]")
	fmt.Println("Run 'spctl help' for available commands")
	os.Exit(1)
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// RollupCommand rebuilds daily rollups for a day or a range of days
type RollupCommand struct{}

func (c *RollupCommand) Name() string { return "rollup" }
func (c *RollupCommand) Description() string {
	return "Rebuilds daily rollups: rollup <date> [end-date] (YYYY-MM-DD, defaults to yesterday)"
}

func (c *RollupCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	from := time.Now().UTC().AddDate(0, 0, -1)
	to := from

	var err error
	if len(args) >= 1 {
		from, err = time.Parse(time.DateOnly, args[0])
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", args[0], err)
		}
		to = from
	}
	if len(args) >= 2 {
		to, err = time.Parse(time.DateOnly, args[1])
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", args[1], err)
		}
	}

	builder := rollups.NewBuilder(app.DBManager.GetConnection(), app.Config, app.Logger)
	paths, err := builder.BuildRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("rollup failed: %w", err)
	}

	log.Printf("Rolled up %s through %s: %d path-days written",
		rollups.Day(from).Format(time.DateOnly),
		rollups.Day(to).Format(time.DateOnly),
		paths)
	return nil
}

// PurgeCommand deletes tracking data older than the retention window
type PurgeCommand struct{}

func (c *PurgeCommand) Name() string { return "purge" }
func (c *PurgeCommand) Description() string {
	return "Deletes tracking data older than the configured retention window"
}

func (c *PurgeCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -app.Config.RetentionDays)
	log.Printf("Purging data older than %s (%d days)...", cutoff.Format(time.DateOnly), app.Config.RetentionDays)

	counts, err := jobs.PurgeBefore(app.DBManager.GetConnection(), cutoff)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	log.Printf("Purged %d rows:", counts.Total())
	log.Printf("- Visits: %d", counts.Visits)
	log.Printf("- Page views: %d", counts.PageViews)
	log.Printf("- Events: %d", counts.Events)
	log.Printf("- Performance samples: %d", counts.Performances)
	log.Printf("- Error logs: %d", counts.ErrorLogs)
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	var visits, pageViews, rollupRows int64
	if err := db.Model(&tracking.Visit{}).Count(&visits).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&tracking.PageView{}).Count(&pageViews).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&rollups.DailyRollup{}).Count(&rollupRows).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Visits: %d", visits)
	log.Printf("- Page views: %d", pageViews)
	log.Printf("- Rollup rows: %d", rollupRows)
	log.Printf("- Rollups enabled: %t", app.Config.RollupEnabled)
	log.Printf("- Retention days: %d", app.Config.RetentionDays)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: spctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	return nil
}
