// Package source reads the raw inputs: fixed-schema CSV exports and saved
// HTML pages.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout       = "2006-01-02"
	ctxCheckInterval = 1024 // rows between cancellation checks
)

// Reader opens raw sources below a root directory.
type Reader struct {
	root string
}

// NewReader creates a Reader rooted at root.
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// Path returns the file location of s.
func (r *Reader) Path(s Schema) string {
	return filepath.Join(r.root, s.File)
}

// Check verifies every source file exists.
func (r *Reader) Check() error {
	for _, s := range All() {
		if _, err := os.Stat(r.Path(s)); err != nil {
			return notFound(r.Path(s), err)
		}
	}
	return nil
}

// Each streams the typed records of s to fn in file order. Values are
// int64, float64, decimal.Decimal, string (dates as YYYY-MM-DD) or nil for
// empty cells. A missing column or an unparseable value aborts the read.
func (r *Reader) Each(ctx context.Context, s Schema, fn func(record []any) error) error {
	path := r.Path(s)
	f, err := os.Open(path)
	if err != nil {
		return notFound(path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty file: %w", s.File, ErrSchemaMismatch)
		}
		return fmt.Errorf("%s: read header: %w", s.File, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	positions := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		pos, ok := index[c.Name]
		if !ok {
			return fmt.Errorf("%s: missing column %q: %w", s.File, c.Name, ErrSchemaMismatch)
		}
		positions[i] = pos
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%s:%d: %w: %v", s.File, line, ErrMalformedRecord, err)
		}
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		out := make([]any, len(s.Columns))
		for i, c := range s.Columns {
			var cell string
			if positions[i] < len(rec) {
				cell = rec[positions[i]]
			}
			v, err := Parse(c.Type, cell)
			if err != nil {
				return fmt.Errorf("%s:%d: column %s: %w", s.File, line, c.Name, err)
			}
			out[i] = v
		}
		if err := fn(out); err != nil {
			return err
		}
	}
}

// Parse converts one CSV cell to its typed value. Empty cells are nil.
func Parse(t ColumnType, cell string) (any, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	switch t {
	case Integer:
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n, nil
		}
		// Exports write some integer columns as 12.0.
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: integer %q", ErrMalformedRecord, cell)
		}
		return int64(f), nil
	case Real:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: real %q", ErrMalformedRecord, cell)
		}
		return f, nil
	case Decimal:
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: decimal %q", ErrMalformedRecord, cell)
		}
		return d, nil
	case Date:
		if len(cell) > len(dateLayout) {
			cell = cell[:len(dateLayout)]
		}
		d, err := time.Parse(dateLayout, cell)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q", ErrMalformedRecord, cell)
		}
		return d.Format(dateLayout), nil
	default:
		return cell, nil
	}
}

// ReadHTML returns the text of a saved page. Invalid UTF-8 is replaced.
func ReadHTML(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", notFound(path, err)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrSourceNotFound)
	}
	return fmt.Errorf("%s: %w", path, err)
}
