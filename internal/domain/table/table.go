// Package table contains the in-memory tabular shapes passed between the
// HTML engine, the normalizer, and the artifact writers.
package table

import (
	"strconv"
	"strings"
)

// PlaceholderPrefix marks a header cell that had no text.
const PlaceholderPrefix = "Unnamed: "

// Kind tags the content of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is one cell.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// Null is the missing-value marker.
func Null() Value { return Value{} }

// Str wraps text. Empty text is null.
func Str(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindString, Str: s}
}

// Num wraps a number.
func Num(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// IsNull reports whether v is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders v the way it would appear in a cell.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Key is a comparable identity used for distinct counting. Nulls share a key.
func (v Value) Key() string {
	switch v.Kind {
	case KindString:
		return "s:" + v.Str
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return "null"
	}
}

// Column holds every header level of one column, outermost first.
type Column []string

// IsPlaceholder reports whether a header segment carries no name.
func IsPlaceholder(segment string) bool {
	return segment == "" || strings.HasPrefix(segment, PlaceholderPrefix)
}

// Label joins the named header levels with "_". A single-level column is
// its own text, so a column headed "Player" has label "Player".
func (c Column) Label() string {
	parts := make([]string, 0, len(c))
	for _, seg := range c {
		seg = strings.TrimSpace(seg)
		if IsPlaceholder(seg) {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "_")
}

// Raw is a parsed table before normalization.
type Raw struct {
	Columns []Column
	Rows    [][]Value
}

// NumRows returns the body row count.
func (r Raw) NumRows() int { return len(r.Rows) }

// ColumnIndex returns the first column whose label equals label exactly,
// or -1.
func (r Raw) ColumnIndex(label string) int {
	for i, c := range r.Columns {
		if c.Label() == label {
			return i
		}
	}
	return -1
}

// FieldType is the storage type of a normalized column.
type FieldType uint8

const (
	TypeString FieldType = iota
	TypeNumber
)

// String implements fmt.Stringer.
func (t FieldType) String() string {
	if t == TypeNumber {
		return "number"
	}
	return "string"
}

// Field names a normalized column.
type Field struct {
	Name string
	Type FieldType
}

// Normalized is a table with unique snake_case column names.
type Normalized struct {
	Fields []Field
	Rows   [][]Value
}

// FieldIndex returns the position of name, or -1.
func (n Normalized) FieldIndex(name string) int {
	for i, f := range n.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names lists the column names in order.
func (n Normalized) Names() []string {
	out := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		out[i] = f.Name
	}
	return out
}
