// Package parse converts raw records into parsed rows using a schema.
package parse

import (
	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// Value converts a single raw value for a column of type t.
func Value(t celltype.Type, raw any) any {
	return celltype.Parse(t, raw)
}

// Row parses one record. Keys the schema does not know keep their raw value.
func Row(r record.Record, index int, s schema.Schema) record.Row {
	values := make(map[string]any, r.Len()+len(s))
	for _, k := range r.Keys() {
		if record.IsReserved(k) {
			continue
		}
		values[k] = r.Value(k)
	}
	for col, t := range s {
		values[col] = celltype.Parse(t, r.Value(col))
	}
	return record.Row{
		Values: values,
		Raw:    r,
		Index:  index,
	}
}

// Rows parses every record, keeping each row's original position in Index.
func Rows(records []record.Record, s schema.Schema) []record.Row {
	out := make([]record.Row, len(records))
	for i, r := range records {
		out[i] = Row(r, i, s)
	}
	return out
}
