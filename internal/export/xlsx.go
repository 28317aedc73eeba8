package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// DefaultSheetName names the worksheet XLSX writes.
const DefaultSheetName = "grid"

// XLSX writes a single-sheet workbook. Numeric columns are written as number
// cells; every other cell holds the raw text.
func XLSX(w io.Writer, columns []string, rows []record.Row, s schema.Schema) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(DefaultSheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, c := range columns {
			cell := row.AddCell()
			if s.Info(c).SortKind == celltype.SortNumber && !isDateLike(s.Type(c)) {
				if n, ok := celltype.ToNumber(r.Value(c)); ok {
					cell.SetFloat(n)
					continue
				}
			}
			cell.SetString(rawText(r, c))
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func isDateLike(t celltype.Type) bool {
	switch t {
	case celltype.Date, celltype.ShortRangeDate, celltype.Time:
		return true
	}
	return false
}
