package warehouse

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownDriver     = errors.New("unknown warehouse driver")
	ErrInvalidIdentifier = errors.New("invalid table or column name")
	ErrNotFound          = errors.New("not found")
)
