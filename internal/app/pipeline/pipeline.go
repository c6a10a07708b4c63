// Package pipeline rebuilds the dimensional warehouse from the raw exports
// through a fixed chain of stages, each replacing its table atomically.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/warehouse"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/universe"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Stage names in execution order.
const (
	StageLoadRaw = "load_raw"
	StageAudit   = "audit"
)

// Stage is one step of a build. Table is empty for stages that do not
// materialize a warehouse table.
type Stage struct {
	Name  string
	Table string
	run   func(ctx context.Context, s *warehouse.Session, r *Report) (int64, error)
}

// Report summarizes a finished build.
type Report struct {
	BuildID  string
	Tables   []model.TableCount
	Audit    Audit
	Duration time.Duration
}

// Pipeline builds the warehouse.
type Pipeline struct {
	wh       *warehouse.Warehouse
	reader   *source.Reader
	criteria universe.Criteria
	buildID  string
	logger   logger.Logger
}

// New creates a Pipeline over an open warehouse and a raw source reader.
func New(wh *warehouse.Warehouse, reader *source.Reader, opts ...Option) *Pipeline {
	p := &Pipeline{
		wh:       wh,
		reader:   reader,
		criteria: universe.New(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build is a convenience wrapper around New(...).Run.
func Build(ctx context.Context, wh *warehouse.Warehouse, reader *source.Reader, opts ...Option) (Report, error) {
	return New(wh, reader, opts...).Run(ctx)
}

// Stages lists the build steps. Every stage reads only tables materialized
// by the stages before it.
func (p *Pipeline) Stages() []Stage {
	d := p.wh.Dialect()
	replace := func(name, query string) Stage {
		return Stage{Name: name, Table: name, run: func(ctx context.Context, s *warehouse.Session, _ *Report) (int64, error) {
			return s.Replace(ctx, name, query)
		}}
	}
	return []Stage{
		{Name: StageLoadRaw, run: p.loadRaw},
		replace(warehouse.TableDimPlayer, dimPlayerSQL()),
		replace(warehouse.TableDimClub, dimClubSQL()),
		replace(warehouse.TableDimCompetition, dimCompetitionSQL()),
		replace(warehouse.TableFactMarketValue, marketValueSQL()),
		replace(warehouse.TableFactAppearances, appearancesSQL(d)),
		replace(warehouse.TableSeasonAvailability, availabilitySQL(d)),
		replace(warehouse.TableUniverse, universeSQL(d, p.criteria)),
		{Name: StageAudit, run: func(ctx context.Context, s *warehouse.Session, r *Report) (int64, error) {
			var err error
			r.Audit, err = runAudit(ctx, s)
			return r.Audit.Findings(), err
		}},
	}
}

// Run executes every stage in order on one pinned connection. The first
// failure aborts the build and is returned as a *StageError.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if err := p.criteria.Validate(); err != nil {
		return Report{}, errors.Join(ErrInvalidCriteria, err)
	}

	start := time.Now()
	report := Report{BuildID: p.buildID}
	if report.BuildID == "" {
		report.BuildID = uuid.NewString()
	}
	log := p.logger.With(logger.String("build_id", report.BuildID))

	sess, err := p.wh.Acquire(ctx)
	if err != nil {
		metrics.RecordBuild(false)
		return report, &StageError{Stage: StageLoadRaw, Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn(ctx, "release connection", logger.Error(cerr))
		}
	}()

	log.Info(ctx, "build started", logger.String("dialect", p.wh.Dialect().Name()))
	for _, st := range p.Stages() {
		stageStart := time.Now()
		rows, err := st.run(ctx, sess, &report)
		elapsed := time.Since(stageStart)
		metrics.RecordStageDuration(st.Name, float64(elapsed.Milliseconds()))

		if err != nil {
			metrics.RecordStageFailure(st.Name)
			metrics.RecordBuild(false)
			log.Error(ctx, "stage failed",
				logger.String("stage", st.Name),
				logger.Duration("duration", elapsed),
				logger.Error(err),
			)
			return report, &StageError{Stage: st.Name, Err: err}
		}

		if st.Table != "" {
			metrics.SetTableRows(st.Table, rows)
			report.Tables = append(report.Tables, model.TableCount{Table: st.Table, Rows: rows})
		}
		log.Info(ctx, "stage finished",
			logger.String("stage", st.Name),
			logger.Int64("rows", rows),
			logger.Duration("duration", elapsed),
		)
	}

	report.Audit.warn(ctx, log)
	report.Duration = time.Since(start)
	metrics.RecordBuild(true)
	log.Info(ctx, "build finished", logger.Duration("duration", report.Duration))
	return report, nil
}

// loadRaw checks every source exists before loading any, so a missing file
// fails without touching the store.
func (p *Pipeline) loadRaw(ctx context.Context, s *warehouse.Session, _ *Report) (int64, error) {
	if err := p.reader.Check(); err != nil {
		return 0, err
	}
	var total int64
	for _, schema := range source.All() {
		n, err := s.LoadRaw(ctx, p.reader, schema)
		if err != nil {
			return total, fmt.Errorf("load %s: %w", schema.File, err)
		}
		p.logger.Debug(ctx, "raw source loaded",
			logger.String("file", schema.File),
			logger.Int64("rows", n),
		)
		total += n
	}
	return total, nil
}
