package grid

import (
	"unicode/utf8"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// WidthOptions tunes column width estimation. Widths are in pixels; the
// terminal host divides by CharWidth.
type WidthOptions struct {
	CharWidth        int `mapstructure:"char_width"`
	MinWidth         int `mapstructure:"min_width"`
	MaxChars         int `mapstructure:"max_chars"`
	FirstColumnExtra int `mapstructure:"first_column_extra"`
	Fallback         int `mapstructure:"fallback"`
}

// DefaultWidthOptions returns the stock sizing.
func DefaultWidthOptions() WidthOptions {
	return WidthOptions{
		CharWidth:        15,
		MinWidth:         100,
		MaxChars:         19,
		FirstColumnExtra: 30,
		Fallback:         150,
	}
}

func (o WidthOptions) withDefaults() WidthOptions {
	d := DefaultWidthOptions()
	if o.CharWidth <= 0 {
		o.CharWidth = d.CharWidth
	}
	if o.MinWidth <= 0 {
		o.MinWidth = d.MinWidth
	}
	if o.MaxChars <= 0 {
		o.MaxChars = d.MaxChars
	}
	if o.Fallback <= 0 {
		o.Fallback = d.Fallback
	}
	return o
}

// ColumnWidths estimates a width per column from the longest formatted
// value, clamped to MaxChars characters. The first column gets extra room
// for the row controls; columns of unknown type get the fallback width.
func ColumnWidths(columns []string, rows []record.Row, s schema.Schema, o WidthOptions) []float64 {
	o = o.withDefaults()
	out := make([]float64, len(columns))
	for i, col := range columns {
		info, ok := celltype.Lookup(s[col])
		if !ok {
			out[i] = float64(o.Fallback)
			continue
		}

		longest := 0
		for _, r := range rows {
			longest = max(longest, utf8.RuneCountInString(celltype.Format(info.Type, r.Value(col))))
		}
		chars := min(longest+3, o.MaxChars)

		minWidth := o.MinWidth
		if info.MinWidth > 0 {
			minWidth = info.MinWidth
		}
		w := max(minWidth, chars*o.CharWidth) + info.ExtraPadding
		if i == 0 {
			w += o.FirstColumnExtra
		}
		out[i] = float64(w)
	}
	return out
}
