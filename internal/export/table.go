package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// TableOptions tunes text table rendering.
type TableOptions struct {
	// Status adds a leading column with each row's diff status.
	Status bool
	// Footer prints the row count under the table.
	Footer bool
}

// Table renders rows as a box-drawn text table using formatted values.
// Numeric columns are right aligned.
func Table(w io.Writer, columns []string, rows []record.Row, s schema.Schema, opts TableOptions) error {
	t := newWriter(columns, rows, s, opts)
	t.SetStyle(table.StyleLight)

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	_, _ = fmt.Fprintln(w, t.Render())
	if opts.Footer {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	}
	return nil
}

// Markdown renders rows as a GitHub-flavoured markdown table.
func Markdown(w io.Writer, columns []string, rows []record.Row, s schema.Schema) error {
	t := newWriter(columns, rows, s, TableOptions{})
	_, _ = fmt.Fprintln(w, t.RenderMarkdown())
	return nil
}

func newWriter(columns []string, rows []record.Row, s schema.Schema, opts TableOptions) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, 0, len(columns)+1)
	if opts.Status {
		header = append(header, "")
	}
	var configs []table.ColumnConfig
	for _, c := range columns {
		header = append(header, c)
		if s.Info(c).SortKind == celltype.SortNumber && !isDateLike(s.Type(c)) {
			configs = append(configs, table.ColumnConfig{Name: c, Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, r := range rows {
		line := make(table.Row, 0, len(header))
		if opts.Status {
			line = append(line, statusMark(r.Status))
		}
		for _, c := range columns {
			line = append(line, celltype.Format(s.Type(c), r.Value(c)))
		}
		t.AppendRow(line)
	}
	return t
}

func statusMark(st record.Status) string {
	switch st {
	case record.StatusNew:
		return "+"
	case record.StatusOld:
		return "-"
	case record.StatusModified:
		return "~"
	default:
		return ""
	}
}
