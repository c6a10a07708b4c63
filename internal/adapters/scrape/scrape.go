package scrape

import (
	"context"

	"github.com/okian/scout/internal/domain/table"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Extract runs discovery, parsing and selection over one HTML document.
func (p *Parser) Extract(ctx context.Context, html string) (table.Raw, error) {
	regions := Regions(html)
	metrics.RecordScrapeRegions(len(regions))
	if len(regions) == 0 {
		return table.Raw{}, ErrNoTablesFound
	}

	candidates, err := p.ParseAll(ctx, regions)
	if err != nil {
		return table.Raw{}, err
	}
	if len(candidates) == 0 {
		return table.Raw{}, ErrNoParseableTable
	}

	chosen, ok := Select(candidates)
	if !ok {
		metrics.RecordSelectFallback()
		p.logger.Warn(ctx, "falling back to largest table",
			logger.Error(ErrSchemaMismatch),
			logger.Int("candidates", len(candidates)),
			logger.Int("rows", chosen.NumRows()),
		)
	}
	p.logger.Debug(ctx, "table selected",
		logger.Int("regions", len(regions)),
		logger.Int("candidates", len(candidates)),
		logger.Int("rows", chosen.NumRows()),
		logger.Int("columns", len(chosen.Columns)),
		logger.Bool("player_column", ok),
	)
	return chosen, nil
}

// Extract is a convenience wrapper around NewParser(opts...).Extract.
func Extract(ctx context.Context, html string, opts ...Option) (table.Raw, error) {
	return NewParser(opts...).Extract(ctx, html)
}
