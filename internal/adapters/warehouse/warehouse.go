// Package warehouse owns the analytical store: an embedded SQLite file by
// default, or PostgreSQL. Writes go through a Session that pins one
// connection for the duration of a build.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/okian/scout/pkg/logger"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to splice into SQL.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

func checkIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidIdentifier)
	}
	return nil
}

// checkColumn accepts any column name that can be quoted. Scraped headers
// keep digits and non-ASCII letters, so only table names are held to the
// strict identifier form.
func checkColumn(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q: %w", name, ErrInvalidIdentifier)
	}
	return nil
}

// Warehouse is an open store handle.
type Warehouse struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

// Open connects to the store. The pool is capped at one connection: a
// single build owns the store at a time.
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*Warehouse, error) {
	d, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	if driverName == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	w := &Warehouse{
		db:      db,
		dialect: d,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ensureDir creates the parent directory of a file DSN.
func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create warehouse dir: %w", err)
		}
	}
	return nil
}

// Dialect returns the SQL dialect of the store.
func (w *Warehouse) Dialect() Dialect { return w.dialect }

// DB exposes the pool for read-only callers.
func (w *Warehouse) DB() *sql.DB { return w.db }

// Ping checks the store is reachable.
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// Close releases the pool.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Acquire pins a connection. Temporary raw tables live on it, so every
// stage of a build must use the same Session.
func (w *Warehouse) Acquire(ctx context.Context) (*Session, error) {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn, dialect: w.dialect, logger: w.logger}, nil
}
