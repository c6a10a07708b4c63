// Package parquet persists one normalized scrape as a Parquet file so
// extraction can be inspected before anything is loaded into the warehouse.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/okian/scout/internal/domain/table"
)

// Ext is the artifact file extension.
const Ext = ".parquet"

// ArtifactPath returns <root>/<source>_<season>.parquet.
func ArtifactPath(root, source, season string) string {
	return filepath.Join(root, source+"_"+season+Ext)
}

// Schema maps normalized fields onto Arrow types.
func Schema(t table.Normalized) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Fields))
	for i, f := range t.Fields {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if f.Type == table.TypeNumber {
			typ = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: f.Name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Write stores t at path, replacing any earlier file only once the new one
// is complete.
func Write(path string, t table.Normalized) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*"+Ext)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	schema := Schema(t)
	rec := record(schema, t)
	defer rec.Release()

	props := pqfile.NewWriterProperties(pqfile.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, tmp, props, pqarrow.DefaultWriterProps())
	if err != nil {
		tmp.Close()
		return fmt.Errorf("open parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	// Closing the writer closes tmp as well.
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

func record(schema *arrow.Schema, t table.Normalized) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i, f := range t.Fields {
		switch f.Type {
		case table.TypeNumber:
			fb := b.Field(i).(*array.Float64Builder)
			for _, row := range t.Rows {
				if v := row[i]; v.Kind == table.KindNumber {
					fb.Append(v.Num)
				} else {
					fb.AppendNull()
				}
			}
		default:
			sb := b.Field(i).(*array.StringBuilder)
			for _, row := range t.Rows {
				if v := row[i]; v.IsNull() {
					sb.AppendNull()
				} else {
					sb.Append(v.String())
				}
			}
		}
	}
	return b.NewRecord()
}

// Read loads an artifact written by Write.
func Read(ctx context.Context, path string) (table.Normalized, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table.Normalized{}, fmt.Errorf("%s: %w", path, ErrArtifactNotFound)
		}
		return table.Normalized{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f, nil, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return table.Normalized{}, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()

	n := int(tbl.NumRows())
	out := table.Normalized{
		Fields: make([]table.Field, tbl.NumCols()),
		Rows:   make([][]table.Value, n),
	}
	for r := range out.Rows {
		out.Rows[r] = make([]table.Value, len(out.Fields))
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		col := tbl.Column(c)
		field := table.Field{Name: col.Name()}
		switch col.DataType().ID() {
		case arrow.FLOAT64:
			field.Type = table.TypeNumber
		case arrow.STRING:
			field.Type = table.TypeString
		default:
			return table.Normalized{}, fmt.Errorf("column %s is %s: %w", col.Name(), col.DataType(), ErrUnsupportedType)
		}
		out.Fields[c] = field

		row := 0
		for _, chunk := range col.Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				if !chunk.IsNull(j) {
					switch a := chunk.(type) {
					case *array.Float64:
						out.Rows[row][c] = table.Num(a.Value(j))
					case *array.String:
						out.Rows[row][c] = table.Str(a.Value(j))
					}
				}
				row++
			}
		}
	}
	return out, nil
}
