package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
)

func buildCommand(rt *env) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Rebuild every warehouse table from the raw exports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "raw-root", Usage: "Directory holding the CSV exports"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("raw-root") {
				rt.cfg.RawRoot = c.String("raw-root")
			}
			svc, stop, err := rt.started(c)
			if err != nil {
				return err
			}
			defer stop()

			report, err := svc.Build(c.Context)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "build %s finished in %s\n\n", report.BuildID, report.Duration.Round(time.Millisecond))
			rows := make([][]string, len(report.Tables))
			for i, t := range report.Tables {
				rows[i] = []string{t.Table, strconv.FormatInt(t.Rows, 10)}
			}
			if err := writeTable(w, []string{"TABLE", "ROWS"}, rows); err != nil {
				return err
			}
			if !report.Audit.Clean() {
				fmt.Fprintln(w)
				dups := make([][]string, 0, len(report.Audit.Keys))
				for _, k := range report.Audit.Keys {
					if k.Duplicates > 0 {
						dups = append(dups, []string{k.Table, joinKey(k.Key), strconv.FormatInt(k.Duplicates, 10)})
					}
				}
				return writeTable(w, []string{"TABLE", "KEY", "DUPLICATES"}, dups)
			}
			return nil
		},
	}
}

func scrapeCommand(rt *env) *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Extract the player table from a saved page into a Parquet artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "html", Usage: "Saved statistics page"},
			&cli.StringFlag{Name: "season", Usage: "Season label, e.g. 2023-2024"},
			&cli.StringFlag{Name: "source", Usage: "Artifact and staging table prefix"},
			&cli.StringFlag{Name: "out", Usage: "Directory receiving the artifact"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("html") {
				rt.cfg.HTMLPath = c.String("html")
			}
			if c.IsSet("season") {
				rt.cfg.Season = c.String("season")
			}
			if c.IsSet("source") {
				rt.cfg.SourceName = c.String("source")
			}
			if c.IsSet("out") {
				rt.cfg.ProcessedRoot = c.String("out")
			}
			if err := rt.cfg.Validate(); err != nil {
				return err
			}

			res, err := rt.service().ScrapeFile(c.Context, rt.cfg.HTMLPath, rt.cfg.Season)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %d rows x %d columns to %s\n", res.Rows, len(res.Columns), res.Path)
			return nil
		},
	}
}

func loadStagingCommand(rt *env) *cli.Command {
	return &cli.Command{
		Name:  "load-staging",
		Usage: "Replace the staging table of a season with its Parquet artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "season", Usage: "Season label, e.g. 2023-2024"},
			&cli.StringFlag{Name: "source", Usage: "Artifact and staging table prefix"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("season") {
				rt.cfg.Season = c.String("season")
			}
			if c.IsSet("source") {
				rt.cfg.SourceName = c.String("source")
			}
			if err := rt.cfg.Validate(); err != nil {
				return err
			}
			svc, stop, err := rt.started(c)
			if err != nil {
				return err
			}
			defer stop()

			name, n, err := svc.LoadStaging(c.Context, rt.cfg.Season)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "loaded %d rows into %s\n", n, name)
			return nil
		},
	}
}

func summaryCommand(rt *env) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Print row counts of the warehouse tables and the latest universe seasons",
		Action: func(c *cli.Context) error {
			svc, stop, err := rt.started(c)
			if err != nil {
				return err
			}
			defer stop()

			sum, err := svc.Summary(c.Context)
			if err != nil {
				return err
			}
			return writeSummary(c.App.Writer, sum)
		},
	}
}

func serveCommand(rt *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address, e.g. :9080"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("addr") {
				rt.cfg.Addr = c.String("addr")
			}
			svc, stop, err := rt.started(c)
			if err != nil {
				return err
			}
			defer stop()
			return serve(c.Context, rt, svc)
		},
	}
}
