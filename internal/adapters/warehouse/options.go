package warehouse

import (
	"github.com/okian/scout/pkg/logger"
)

// Option applies a configuration option to the Warehouse.
type Option func(*Warehouse)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Warehouse) {
		if l != nil {
			w.logger = l
		}
	}
}
