package pipeline

import (
	"github.com/okian/scout/internal/domain/universe"
	"github.com/okian/scout/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithCriteria overrides the universe eligibility rules.
func WithCriteria(c universe.Criteria) Option {
	return func(p *Pipeline) {
		p.criteria = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBuildID fixes the build identifier instead of generating one.
func WithBuildID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.buildID = id
		}
	}
}
