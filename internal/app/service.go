// Package service wires the scrape, staging and warehouse components into
// the operations used by the commands and the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/adapters/parquet"
	"github.com/okian/scout/internal/adapters/scrape"
	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/app/pipeline"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/normalize"
	"github.com/okian/scout/internal/domain/season"
	"github.com/okian/scout/internal/domain/universe"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// SummarySeasons is how many of the latest universe seasons Summary reports.
const SummarySeasons = 8

// Service owns the warehouse handle and runs builds, scrapes and reads.
type Service struct {
	mu sync.RWMutex
	// buildMu serializes operations that rewrite warehouse tables.
	buildMu sync.Mutex

	// Configuration
	rawRoot        string
	processedRoot  string
	sourceName     string
	driver         string
	dsn            string
	criteria       universe.Criteria
	numericColumns []string
	parseWorkers   int

	// State
	wh      *warehouse.Warehouse
	started bool

	logger logger.Logger
}

// ScrapeResult describes one written scrape artifact.
type ScrapeResult struct {
	ID      string
	Path    string
	Season  string
	Rows    int
	Columns []string
	Stats   normalize.Stats
}

// Summary is the sanity report of a built warehouse.
type Summary struct {
	Tables  []model.TableCount
	Seasons []model.SeasonCount
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRawRoot sets the directory holding the CSV exports.
func WithRawRoot(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.rawRoot = dir
		}
	}
}

// WithProcessedRoot sets the directory receiving scrape artifacts.
func WithProcessedRoot(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.processedRoot = dir
		}
	}
}

// WithSourceName sets the prefix of scrape artifacts and staging tables.
func WithSourceName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.sourceName = name
		}
	}
}

// WithWarehouse selects the warehouse driver and DSN.
func WithWarehouse(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" && dsn != "" {
			s.driver = driver
			s.dsn = dsn
		}
	}
}

// WithCriteria sets the universe eligibility rules.
func WithCriteria(c universe.Criteria) Option {
	return func(s *Service) {
		s.criteria = c
	}
}

// WithNumericColumns sets the coercion allow-list for scraped tables.
func WithNumericColumns(cols []string) Option {
	return func(s *Service) {
		if cols != nil {
			s.numericColumns = cols
		}
	}
}

// WithParseWorkers sets the number of region parsing goroutines.
func WithParseWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parseWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rawRoot:        "data/raw/transfermarkt",
		processedRoot:  "data/processed",
		sourceName:     "fbref_standard",
		driver:         warehouse.DriverSQLite,
		dsn:            "data/warehouse/scouting.db",
		criteria:       universe.New(),
		numericColumns: normalize.DefaultNumericColumns(),
		parseWorkers:   runtime.NumCPU(),
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the warehouse.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	wh, err := warehouse.Open(ctx, s.driver, s.dsn, warehouse.WithLogger(s.logger.Named("warehouse")))
	if err != nil {
		return err
	}
	s.wh = wh
	s.started = true
	s.logger.Info(ctx, "service started",
		logger.String("driver", s.driver),
		logger.Int("parse_workers", s.parseWorkers),
	)
	return nil
}

// Stop closes the warehouse.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.wh.Close(); err != nil {
		s.logger.Warn(context.Background(), "close warehouse", logger.Error(err))
	}
	s.wh = nil
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) store() (*warehouse.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.wh, nil
}

// Build rebuilds every warehouse table from the raw exports.
func (s *Service) Build(ctx context.Context) (pipeline.Report, error) {
	wh, err := s.store()
	if err != nil {
		return pipeline.Report{}, err
	}
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	return pipeline.Build(ctx, wh, source.NewReader(s.rawRoot),
		pipeline.WithCriteria(s.criteria),
		pipeline.WithLogger(s.logger.Named("pipeline")),
	)
}

// ScrapeFile extracts the player table from a saved HTML page, normalizes it
// for label and writes the Parquet artifact. It does not touch the warehouse.
func (s *Service) ScrapeFile(ctx context.Context, path, label string) (ScrapeResult, error) {
	if _, _, err := season.Parse(label); err != nil {
		return ScrapeResult{}, err
	}
	res := ScrapeResult{ID: uuid.NewString(), Season: label}
	log := s.logger.With(logger.String("scrape_id", res.ID), logger.String("path", path))
	start := time.Now()

	html, err := source.ReadHTML(path)
	if err != nil {
		return res, err
	}
	parser := scrape.NewParser(
		scrape.WithWorkers(s.parseWorkers),
		scrape.WithLogger(log.Named("scrape")),
	)
	raw, err := parser.Extract(ctx, html)
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", path, err)
	}

	out, stats := normalize.New(normalize.WithNumericColumns(s.numericColumns)).Table(raw, label)
	metrics.RecordCoercionNulls(stats.NullsCoerced)

	res.Path = parquet.ArtifactPath(s.processedRoot, s.sourceName, label)
	if err := parquet.Write(res.Path, out); err != nil {
		return res, err
	}
	res.Rows = len(out.Rows)
	res.Columns = out.Names()
	res.Stats = stats

	log.Info(ctx, "scrape written",
		logger.String("artifact", res.Path),
		logger.Int("rows", res.Rows),
		logger.Int("columns", len(res.Columns)),
		logger.Int("header_rows_dropped", stats.HeaderRowsDropped),
		logger.Int("nulls_coerced", stats.NullsCoerced),
		logger.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// StagingTable names the staging table of one scrape.
func StagingTable(sourceName, label string) string {
	return "stg_" + sourceName + "_" + season.TableSuffix(label)
}

// LoadStaging replaces the staging table of label with its Parquet artifact
// and returns the table name and row count.
func (s *Service) LoadStaging(ctx context.Context, label string) (string, int64, error) {
	if _, _, err := season.Parse(label); err != nil {
		return "", 0, err
	}
	wh, err := s.store()
	if err != nil {
		return "", 0, err
	}
	t, err := parquet.Read(ctx, parquet.ArtifactPath(s.processedRoot, s.sourceName, label))
	if err != nil {
		return "", 0, err
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	sess, err := wh.Acquire(ctx)
	if err != nil {
		return "", 0, err
	}
	defer sess.Close()

	name := StagingTable(s.sourceName, label)
	n, err := sess.LoadStaging(ctx, name, t)
	if err != nil {
		return name, 0, err
	}
	metrics.SetTableRows(name, n)
	s.logger.Info(ctx, "staging loaded", logger.String("table", name), logger.Int64("rows", n))
	return name, n, nil
}

// Summary reports row counts of every warehouse table and universe rows of
// the latest seasons.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	wh, err := s.store()
	if err != nil {
		return Summary{}, err
	}
	tables, err := wh.Counts(ctx, warehouse.Tables()...)
	if err != nil {
		return Summary{}, err
	}
	seasons, err := wh.UniverseSeasons(ctx, SummarySeasons)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Tables: tables, Seasons: seasons}, nil
}

// Ping checks the warehouse connection.
func (s *Service) Ping(ctx context.Context) error {
	wh, err := s.store()
	if err != nil {
		return err
	}
	return wh.Ping(ctx)
}

// Universe returns scouting universe rows.
func (s *Service) Universe(ctx context.Context, label string, limit int) ([]model.UniverseRow, error) {
	wh, err := s.store()
	if err != nil {
		return nil, err
	}
	return wh.Universe(ctx, label, limit)
}

// Player returns one player dimension row.
func (s *Service) Player(ctx context.Context, id int64) (model.Player, error) {
	wh, err := s.store()
	if err != nil {
		return model.Player{}, err
	}
	return wh.Player(ctx, id)
}

// Availability returns the season aggregates of a player.
func (s *Service) Availability(ctx context.Context, playerID int64) ([]model.SeasonAvailability, error) {
	wh, err := s.store()
	if err != nil {
		return nil, err
	}
	return wh.Availability(ctx, playerID)
}

// Valuations returns the market value series of a player.
func (s *Service) Valuations(ctx context.Context, playerID int64) ([]model.MarketValuation, error) {
	wh, err := s.store()
	if err != nil {
		return nil, err
	}
	return wh.Valuations(ctx, playerID)
}
