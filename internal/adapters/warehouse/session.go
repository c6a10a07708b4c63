package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/domain/table"
	"github.com/okian/scout/pkg/logger"
)

// RowColumn numbers raw rows in file order so later stages can break ties
// deterministically.
const RowColumn = "src_row"

// Session is one exclusively held connection.
type Session struct {
	conn    *sql.Conn
	dialect Dialect
	logger  logger.Logger
}

// Dialect returns the SQL dialect of the session.
func (s *Session) Dialect() Dialect { return s.dialect }

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Session) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadRaw copies one CSV source into a session-scoped temporary table named
// after the schema and returns the row count.
func (s *Session) LoadRaw(ctx context.Context, r *source.Reader, schema source.Schema) (int64, error) {
	if err := checkIdentifier(schema.Name); err != nil {
		return 0, err
	}
	defs := make([]string, 0, len(schema.Columns)+1)
	defs = append(defs, QuoteIdentifier(RowColumn)+" "+s.dialect.ColumnType(source.Integer))
	cols := append([]string{RowColumn}, schema.Names()...)
	for _, c := range schema.Columns {
		defs = append(defs, QuoteIdentifier(c.Name)+" "+s.dialect.ColumnType(c.Type))
	}

	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+schema.Name); err != nil {
			return fmt.Errorf("drop %s: %w", schema.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE "+schema.Name+" ("+strings.Join(defs, ", ")+")"); err != nil {
			return fmt.Errorf("create %s: %w", schema.Name, err)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.insertSQL(schema.Name, cols))
		if err != nil {
			return fmt.Errorf("prepare %s: %w", schema.Name, err)
		}
		defer stmt.Close()

		err = r.Each(ctx, schema, func(rec []any) error {
			n++
			args := make([]any, 0, len(rec)+1)
			args = append(args, n)
			args = append(args, rec...)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", schema.Name, n, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if s.dialect.bulk() {
			if _, err := stmt.ExecContext(ctx); err != nil {
				return fmt.Errorf("flush %s: %w", schema.Name, err)
			}
		}
		return stmt.Close()
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Replace drops name and recreates it from query in one transaction, so
// readers see either the old table or the complete new one.
func (s *Session) Replace(ctx context.Context, name, query string) (int64, error) {
	if err := checkIdentifier(name); err != nil {
		return 0, err
	}
	var n int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "CREATE TABLE "+name+" AS "+query); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&n)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// LoadStaging replaces name with the rows of t.
func (s *Session) LoadStaging(ctx context.Context, name string, t table.Normalized) (int64, error) {
	if err := checkIdentifier(name); err != nil {
		return 0, err
	}
	cols := t.Names()
	defs := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		if err := checkColumn(f.Name); err != nil {
			return 0, err
		}
		typ := s.dialect.TextType()
		if f.Type == table.TypeNumber {
			typ = s.dialect.NumberType()
		}
		defs[i] = QuoteIdentifier(f.Name) + " " + typ
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "CREATE TABLE "+name+" ("+strings.Join(defs, ", ")+")"); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.insertSQL(name, cols))
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
		defer stmt.Close()

		args := make([]any, len(cols))
		for i, row := range t.Rows {
			for c, v := range row {
				switch v.Kind {
				case table.KindNumber:
					args[c] = v.Num
				case table.KindString:
					args[c] = v.Str
				default:
					args[c] = nil
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, i+1, err)
			}
		}
		if s.dialect.bulk() {
			if _, err := stmt.ExecContext(ctx); err != nil {
				return fmt.Errorf("flush %s: %w", name, err)
			}
		}
		return stmt.Close()
	})
	if err != nil {
		return 0, err
	}
	return int64(len(t.Rows)), nil
}

// Count returns the row count of name.
func (s *Session) Count(ctx context.Context, name string) (int64, error) {
	return count(ctx, s.conn, name)
}

// DuplicateKeys counts key values that occur more than once in name.
func (s *Session) DuplicateKeys(ctx context.Context, name string, key ...string) (int64, error) {
	if err := checkIdentifier(name); err != nil {
		return 0, err
	}
	for _, k := range key {
		if err := checkIdentifier(k); err != nil {
			return 0, err
		}
	}
	cols := strings.Join(key, ", ")
	var n int64
	q := "SELECT COUNT(*) FROM (SELECT " + cols + " FROM " + name + " GROUP BY " + cols + " HAVING COUNT(*) > 1) d"
	if err := s.conn.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("duplicate keys of %s: %w", name, err)
	}
	return n, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func count(ctx context.Context, q queryer, name string) (int64, error) {
	if err := checkIdentifier(name); err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}
