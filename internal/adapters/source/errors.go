package source

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrSchemaMismatch  = errors.New("source schema mismatch")
	ErrMalformedRecord = errors.New("malformed source record")
)
