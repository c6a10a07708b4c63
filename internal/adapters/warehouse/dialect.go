package warehouse

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/okian/scout/internal/adapters/source"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect renders the SQL fragments that differ between warehouse engines.
type Dialect interface {
	Name() string
	// Season maps a date expression to its "Y-(Y+1)" label with a July start.
	Season(date string) string
	// AgeAt is the floored age in whole years on Jan 1 of the second year of
	// a season label expression.
	AgeAt(dob, season string) string
	StddevPop(expr string) string
	ColumnType(t source.ColumnType) string
	NumberType() string
	TextType() string
	// Placeholder is the bind marker for the i-th argument, from 1.
	Placeholder(i int) string

	insertSQL(table string, cols []string) string
	bulk() bool
}

// DialectFor returns the SQL dialect of a supported driver.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case DriverSQLite:
		if err := registerSQLiteFuncs(); err != nil {
			return nil, err
		}
		return sqliteDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", driverName, ErrUnknownDriver)
	}
}

func season(year, month string) string {
	return "CASE WHEN " + month + " >= 7" +
		" THEN CAST(" + year + " AS TEXT) || '-' || CAST(" + year + " + 1 AS TEXT)" +
		" ELSE CAST(" + year + " - 1 AS TEXT) || '-' || CAST(" + year + " AS TEXT) END"
}

func secondYear(season string) string {
	return "CAST(substr(" + season + ", 6, 4) AS INTEGER)"
}

const sqliteSqrt = "scout_sqrt"

var (
	registerOnce sync.Once
	registerErr  error
)

func registerSQLiteFuncs() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction(sqliteSqrt, 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				var f float64
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case int64:
					f = float64(v)
				case float64:
					f = v
				default:
					return nil, fmt.Errorf("%s: unexpected %T", sqliteSqrt, v)
				}
				// Rounding can leave a tiny negative variance.
				return math.Sqrt(math.Max(f, 0)), nil
			})
	})
	return registerErr
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }

func (sqliteDialect) Season(date string) string {
	return season(
		"CAST(strftime('%Y', "+date+") AS INTEGER)",
		"CAST(strftime('%m', "+date+") AS INTEGER)",
	)
}

func (sqliteDialect) AgeAt(dob, season string) string {
	return "(" + secondYear(season) + " - CAST(strftime('%Y', " + dob + ") AS INTEGER)" +
		" - CASE WHEN strftime('%m-%d', " + dob + ") > '01-01' THEN 1 ELSE 0 END)"
}

func (sqliteDialect) StddevPop(expr string) string {
	x := "CAST(" + expr + " AS REAL)"
	return sqliteSqrt + "(avg(" + x + " * " + x + ") - avg(" + x + ") * avg(" + x + "))"
}

func (sqliteDialect) ColumnType(t source.ColumnType) string {
	switch t {
	case source.Integer:
		return "INTEGER"
	case source.Real:
		return "REAL"
	case source.Decimal:
		return "NUMERIC"
	default:
		// Dates stay ISO-8601 text so strftime can read them.
		return "TEXT"
	}
}

func (sqliteDialect) NumberType() string { return "REAL" }
func (sqliteDialect) TextType() string   { return "TEXT" }

func (sqliteDialect) insertSQL(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + table + " (" + quoteAll(cols) + ") VALUES (" + marks + ")"
}

func (sqliteDialect) bulk() bool { return false }

func (sqliteDialect) Placeholder(int) string { return "?" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) Season(date string) string {
	return season(
		"CAST(EXTRACT(YEAR FROM "+date+") AS INTEGER)",
		"CAST(EXTRACT(MONTH FROM "+date+") AS INTEGER)",
	)
}

func (postgresDialect) AgeAt(dob, season string) string {
	return "CAST(EXTRACT(YEAR FROM age(make_date(" + secondYear(season) + ", 1, 1), " + dob + ")) AS INTEGER)"
}

func (postgresDialect) StddevPop(expr string) string {
	return "stddev_pop(" + expr + ")"
}

func (postgresDialect) ColumnType(t source.ColumnType) string {
	switch t {
	case source.Integer:
		return "BIGINT"
	case source.Real:
		return "DOUBLE PRECISION"
	case source.Decimal:
		return "NUMERIC"
	case source.Date:
		return "DATE"
	default:
		return "TEXT"
	}
}

func (postgresDialect) NumberType() string { return "DOUBLE PRECISION" }
func (postgresDialect) TextType() string   { return "TEXT" }

func (postgresDialect) insertSQL(table string, cols []string) string {
	return pq.CopyIn(table, cols...)
}

func (postgresDialect) bulk() bool { return true }

func (postgresDialect) Placeholder(i int) string { return "$" + strconv.Itoa(i) }

// Literal quotes s as an SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Int renders n as an SQL integer literal.
func Int(n int) string { return strconv.Itoa(n) }

// ContainsFold matches a case-insensitive substring of expr.
func ContainsFold(expr, needle string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "LOWER(" + expr + ") LIKE " + Literal("%"+r.Replace(strings.ToLower(needle))+"%") + ` ESCAPE '\'`
}

// QuoteIdentifier quotes name as an SQL identifier, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = QuoteIdentifier(c)
	}
	return strings.Join(q, ", ")
}
