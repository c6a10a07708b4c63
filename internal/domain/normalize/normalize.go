// Package normalize turns a raw scraped table into a normalized table with a
// stable snake_case vocabulary and typed numeric columns.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/scout/internal/domain/table"
)

// Column names with special handling.
const (
	PlayerLabel   = "Player"
	SeasonColumn  = "season"
	MatchesColumn = "matches"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// DefaultNumericColumns is the allow-list used for the standard player stats
// table when no configuration overrides it.
func DefaultNumericColumns() []string {
	return []string{
		"age",
		"born",
		"playing_time_mp",
		"playing_time_starts",
		"playing_time_min",
		"playing_time_90s",
		"performance_gls",
		"performance_ast",
		"performance_ga",
		"performance_gpk",
		"performance_pk",
		"performance_pkatt",
		"performance_crdy",
		"performance_crdr",
		"per_90_minutes_gls",
		"per_90_minutes_ast",
		"per_90_minutes_ga",
		"per_90_minutes_gpk",
		"per_90_minutes_gapk",
	}
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithNumericColumns replaces the numeric allow-list.
func WithNumericColumns(cols []string) Option {
	return func(n *Normalizer) {
		if cols != nil {
			n.numeric = make(map[string]struct{}, len(cols))
			for _, c := range cols {
				n.numeric[strings.TrimSpace(c)] = struct{}{}
			}
		}
	}
}

// Normalizer applies header cleanup, label normalization and coercion.
type Normalizer struct {
	numeric map[string]struct{}
}

// Stats describes what a normalization pass changed.
type Stats struct {
	HeaderRowsDropped int
	MatchesDropped    bool
	NullsCoerced      int
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	WithNumericColumns(DefaultNumericColumns())(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Label converts a raw header label to snake_case.
func Label(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "%", "pct")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// ColumnName flattens a possibly multi-level header and normalizes it.
func ColumnName(c table.Column) string {
	return Label(c.Label())
}

// Table normalizes raw for the given season label.
func (n *Normalizer) Table(raw table.Raw, season string) (table.Normalized, Stats) {
	var stats Stats

	rows := raw.Rows
	if idx := raw.ColumnIndex(PlayerLabel); idx >= 0 {
		rows = make([][]table.Value, 0, len(raw.Rows))
		for _, r := range raw.Rows {
			if idx < len(r) && r[idx].Kind == table.KindString && r[idx].Str == PlayerLabel {
				stats.HeaderRowsDropped++
				continue
			}
			rows = append(rows, r)
		}
	}

	out := table.Normalized{
		Fields: uniqueFields(raw.Columns),
		Rows:   make([][]table.Value, len(rows)),
	}
	width := len(out.Fields)
	for i, r := range rows {
		row := make([]table.Value, width)
		copy(row, r)
		out.Rows[i] = row
	}

	setConstant(&out, SeasonColumn, table.Str(season))

	if idx := out.FieldIndex(MatchesColumn); idx >= 0 && distinct(out.Rows, idx) == 1 {
		dropColumn(&out, idx)
		stats.MatchesDropped = true
	}

	for i, f := range out.Fields {
		if _, ok := n.numeric[f.Name]; !ok {
			continue
		}
		out.Fields[i].Type = table.TypeNumber
		for _, row := range out.Rows {
			v, ok := toNumber(row[i])
			if !ok {
				stats.NullsCoerced++
			}
			row[i] = v
		}
	}

	return out, stats
}

func uniqueFields(cols []table.Column) []table.Field {
	fields := make([]table.Field, len(cols))
	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		name := ColumnName(c)
		if name == "" {
			name = "col_" + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			candidate := name + "_" + strconv.Itoa(n)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				n++
				candidate = name + "_" + strconv.Itoa(n)
			}
			seen[name] = n + 1
			name = candidate
		}
		seen[name] = 1
		fields[i] = table.Field{Name: name, Type: table.TypeString}
	}
	return fields
}

func setConstant(t *table.Normalized, name string, v table.Value) {
	idx := t.FieldIndex(name)
	if idx < 0 {
		t.Fields = append(t.Fields, table.Field{Name: name, Type: table.TypeString})
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], v)
		}
		return
	}
	t.Fields[idx].Type = table.TypeString
	for _, r := range t.Rows {
		r[idx] = v
	}
}

func distinct(rows [][]table.Value, idx int) int {
	keys := make(map[string]struct{})
	for _, r := range rows {
		keys[r[idx].Key()] = struct{}{}
	}
	return len(keys)
}

func dropColumn(t *table.Normalized, idx int) {
	t.Fields = append(t.Fields[:idx:idx], t.Fields[idx+1:]...)
	for i, r := range t.Rows {
		t.Rows[i] = append(r[:idx:idx], r[idx+1:]...)
	}
}

// toNumber coerces a cell. Unparseable text becomes null and reports false;
// nulls stay null and report true.
func toNumber(v table.Value) (table.Value, bool) {
	switch v.Kind {
	case table.KindNumber:
		return v, true
	case table.KindNull:
		return v, true
	}
	s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
	if s == "" {
		return table.Null(), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return table.Null(), false
	}
	return table.Num(f), true
}
