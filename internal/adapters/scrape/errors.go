package scrape

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoTablesFound    = errors.New("no table regions found")
	ErrNoParseableTable = errors.New("table regions found but none parsed")
	ErrEmptyTable       = errors.New("region holds no table with columns")
	// ErrSchemaMismatch marks the degraded selection path when no candidate
	// carries a Player column. It is logged, never returned.
	ErrSchemaMismatch = errors.New("no candidate has a Player column")
)
