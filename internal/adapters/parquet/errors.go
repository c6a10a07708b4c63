package parquet

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrArtifactNotFound = errors.New("parquet artifact not found")
	ErrUnsupportedType  = errors.New("unsupported column type")
)
