// Command scout builds the scouting warehouse, scrapes statistics pages and
// serves the read API.
//
// Usage:
//
//	scout build
//	scout scrape --html page.html --season 2023-2024
//	scout load-staging --season 2023-2024
//	scout summary
//	scout serve --addr :9080
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	app "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env carries the loaded configuration into command actions.
type env struct {
	cfg *config.Config
	log logger.Logger
}

func newApp() *cli.App {
	rt := &env{}
	return &cli.App{
		Name:    "scout",
		Usage:   "Football scouting warehouse",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{config.EnvConfig},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "warehouse-driver",
				Usage: "Warehouse driver (sqlite, postgres)",
			},
			&cli.StringFlag{
				Name:  "warehouse-dsn",
				Usage: "Warehouse file path or connection string",
			},
		},
		Before: rt.setup,
		Commands: []*cli.Command{
			buildCommand(rt),
			scrapeCommand(rt),
			loadStagingCommand(rt),
			summaryCommand(rt),
			serveCommand(rt),
		},
	}
}

// setup layers config defaults, file, env and finally global flags.
func (rt *env) setup(c *cli.Context) error {
	cfg, err := config.LoadFile(c.Context, c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("warehouse-driver") {
		cfg.WarehouseDriver = c.String("warehouse-driver")
	}
	if c.IsSet("warehouse-dsn") {
		cfg.WarehouseDSN = c.String("warehouse-dsn")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.InitWithWriter(cfg.LogFormat, c.App.ErrWriter); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	rt.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		rt.log.Warn(c.Context, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(cfg.MetricsOptions()...)
	rt.cfg = cfg
	return nil
}

func (rt *env) service() *app.Service {
	return app.New(
		app.WithRawRoot(rt.cfg.RawRoot),
		app.WithProcessedRoot(rt.cfg.ProcessedRoot),
		app.WithSourceName(rt.cfg.SourceName),
		app.WithWarehouse(rt.cfg.WarehouseDriver, rt.cfg.WarehouseDSN),
		app.WithCriteria(rt.cfg.Criteria()),
		app.WithNumericColumns(rt.cfg.NumericColumns),
		app.WithParseWorkers(rt.cfg.ParseWorkers),
		app.WithLogger(rt.log),
	)
}

// started opens a service for one command; stop must be deferred.
func (rt *env) started(c *cli.Context) (*app.Service, func(), error) {
	svc := rt.service()
	if err := svc.Start(c.Context); err != nil {
		return nil, nil, err
	}
	return svc, svc.Stop, nil
}
