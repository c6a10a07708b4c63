package scrape

import (
	"github.com/okian/scout/pkg/logger"
)

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithWorkers sets how many regions are parsed concurrently. Values below 1
// select a CPU-based default.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		p.workers = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}
