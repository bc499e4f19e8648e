package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresuchdata/farmrisk/internal/app"
	"github.com/andresuchdata/farmrisk/internal/config"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/repository/postgres"
	"github.com/andresuchdata/farmrisk/internal/scheduler"
	"github.com/andresuchdata/farmrisk/pkg/logger"
	"github.com/urfave/cli/v2"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newWindowDaysFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "window-days",
		Usage: "Days ahead that count as expiring (defaults to RISK_DEFAULT_WINDOW_DAYS)",
	}
}

func initDB(c *cli.Context) error {
	db, err := postgres.Open(c.Context, c.String("db-url"))
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *postgres.DB {
	db, _ := c.Context.Value(dbKey{}).(*postgres.DB)
	return db
}

func optionalInt(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func buildApp(c *cli.Context) (*app.App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Log.Level)
	return app.Build(cfg, dbFrom(c))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cliApp := &cli.App{
		Name:  "riskctl",
		Usage: "Inventory risk maintenance commands",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "seed",
				Usage: "Load users, farms, lots and stock movements from CSV files",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing the seed CSV files",
						Value:   "./data/seeds",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSeed,
			},
			{
				Name:   "refresh",
				Usage:  "Recompute today's inventory alerts",
				Flags:  []cli.Flag{newDBURLFlag(), newWindowDaysFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runRefresh,
			},
			{
				Name:  "health",
				Usage: "Print the inventory health summary",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newWindowDaysFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of farms to include",
					},
					&cli.BoolFlag{
						Name:  "include-expiring",
						Usage: "Count lots expiring inside the window",
						Value: true,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runHealth,
			},
			{
				Name:  "schedule",
				Usage: "Refresh alerts on a cron schedule until interrupted",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newWindowDaysFlag(),
					&cli.StringFlag{
						Name:    "cron",
						Usage:   "Cron expression (minute hour dom month dow)",
						Value:   scheduler.DefaultSpec,
						EnvVars: []string{"RISK_REFRESH_CRON"},
					},
					&cli.BoolFlag{
						Name:  "run-now",
						Usage: "Run one refresh before waiting for the schedule",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runSchedule,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("riskctl failed")
	}
}

func runMigrate(c *cli.Context) error {
	if err := postgres.Migrate(c.Context, dbFrom(c)); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema applied")
	return nil
}

func runSeed(c *cli.Context) error {
	if err := postgres.Seed(c.Context, dbFrom(c), c.String("data-dir")); err != nil {
		return err
	}
	logger.Log.Info().Str("data_dir", c.String("data-dir")).Msg("seed data loaded")
	return nil
}

func runRefresh(c *cli.Context) error {
	application, err := buildApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	alerts, err := application.Services.Alerts.RefreshAlerts(c.Context, optionalInt(c, "window-days"))
	if err != nil {
		return fmt.Errorf("refresh alerts: %w", err)
	}
	return printJSON(alerts)
}

func runHealth(c *cli.Context) error {
	application, err := buildApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	includeExpiring := c.Bool("include-expiring")
	health, err := application.Services.Inventory.GetInventoryHealth(c.Context, domain.InventoryHealthQuery{
		WindowDays:      optionalInt(c, "window-days"),
		IncludeExpiring: &includeExpiring,
		Limit:           optionalInt(c, "limit"),
	})
	if err != nil {
		return fmt.Errorf("inventory health: %w", err)
	}
	return printJSON(health)
}

func runSchedule(c *cli.Context) error {
	application, err := buildApp(c)
	if err != nil {
		return err
	}
	defer application.Close()

	loc, err := config.Load().Risk.Location()
	if err != nil {
		return err
	}

	s := scheduler.NewScheduler(application.Services.Alerts, c.String("cron"), optionalInt(c, "window-days"), loc)
	if c.Bool("run-now") {
		if _, err := s.RunOnce(c.Context); err != nil {
			logger.Log.Error().Err(err).Msg("initial refresh failed")
		}
	}
	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}
