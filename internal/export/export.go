// Package export writes the current grid view as CSV, JSON, XLSX, text
// tables, or into a Postgres table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
)

// Format names accepted by Write.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatXLSX     = "xlsx"
	FormatMarkdown = "markdown"
	FormatTable    = "table"
)

// Formats lists every format Write understands.
var Formats = []string{FormatCSV, FormatJSON, FormatXLSX, FormatMarkdown, FormatTable}

// rawText renders the raw value of a cell for download. Objects and arrays
// are JSON encoded; nil is the empty string.
func rawText(r record.Row, column string) string {
	s, _ := celltype.ToText(r.RawValue(column)).(string)
	return s
}

// CSV writes a header row followed by one line per row. Cells hold raw
// values, falling back to the parsed value when the raw record lacks the
// column. Fields containing a comma, quote or newline are quoted.
func CSV(w io.Writer, columns []string, rows []record.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	line := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			line[i] = rawText(r, c)
		}
		if err := cw.Write(line); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// JSON writes an indented array of objects limited to columns, in column order.
func JSON(w io.Writer, columns []string, rows []record.Row) error {
	out := Records(columns, rows)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// Records projects rows back to raw records holding only columns.
// Diff-only rows keep their values; status is not carried.
func Records(columns []string, rows []record.Row) []record.Record {
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		var rec record.Record
		for _, c := range columns {
			rec.Set(c, r.RawValue(c))
		}
		out[i] = rec
	}
	return out
}
