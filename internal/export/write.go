package export

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// Write dispatches on format name.
func Write(w io.Writer, format string, columns []string, rows []record.Row, s schema.Schema) error {
	switch format {
	case FormatCSV:
		return CSV(w, columns, rows)
	case FormatJSON:
		return JSON(w, columns, rows)
	case FormatXLSX:
		return XLSX(w, columns, rows, s)
	case FormatMarkdown, "md":
		return Markdown(w, columns, rows, s)
	case FormatTable, "":
		return Table(w, columns, rows, s, TableOptions{Footer: true})
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown, "md":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
