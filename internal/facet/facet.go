// Package facet summarizes column values for filter widgets: category
// facets with counts and colours, numeric extents and histogram bins.
package facet

import (
	"sort"
	"strings"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// Palette is the category colour cycle, assigned by first-seen order.
var Palette = []string{"gray", "yellow", "indigo", "pink", "blue", "green", "purple", "red"}

// CategoryValue is one distinct value of a category column.
type CategoryValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Categories lists the distinct non-blank values of column across all rows
// in first-seen order. Count is the number of filtered rows holding the value.
func Categories(all, filtered []record.Row, column string) []CategoryValue {
	counts := make(map[string]int)
	for _, r := range filtered {
		if s, ok := text(r.Value(column)); ok {
			counts[s]++
		}
	}

	seen := make(map[string]struct{})
	var out []CategoryValue
	for _, r := range all {
		s, ok := text(r.Value(column))
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, CategoryValue{
			Value: s,
			Count: counts[s],
			Color: Palette[len(out)%len(Palette)],
		})
	}
	return out
}

// AllCategories computes Categories for every category column in s.
func AllCategories(all, filtered []record.Row, s schema.Schema) map[string][]CategoryValue {
	out := make(map[string][]CategoryValue)
	for col, t := range s {
		if t != celltype.Category {
			continue
		}
		out[col] = Categories(all, filtered, col)
	}
	return out
}

// ColorOf returns the facet colour for value, or "" when it has none.
func ColorOf(values []CategoryValue, value any) string {
	s, ok := text(value)
	if !ok {
		return ""
	}
	for _, v := range values {
		if v.Value == s {
			return v.Color
		}
	}
	return ""
}

// Values collects the numeric values of column, skipping nil.
func Values(rows []record.Row, column string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := celltype.ToNumber(r.Value(column)); ok {
			out = append(out, f)
		}
	}
	return out
}

// Extent is the closed numeric range of a column.
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ExtentOf returns the min and max of values. ok is false when values is
// empty.
func ExtentOf(values []float64) (Extent, bool) {
	if len(values) == 0 {
		return Extent{}, false
	}
	e := Extent{Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		e.Min = min(e.Min, v)
		e.Max = max(e.Max, v)
	}
	return e, true
}

// At maps v into [0, 1] across the extent. A degenerate extent maps
// everything to 0.
func (e Extent) At(v float64) float64 {
	if e.Max == e.Min {
		return 0
	}
	t := (v - e.Min) / (e.Max - e.Min)
	return max(0, min(1, t))
}

// Scales returns the extent of every scaled column (numbers, years, dates)
// over rows.
func Scales(rows []record.Row, s schema.Schema) map[string]Extent {
	out := make(map[string]Extent)
	cols := make([]string, 0, len(s))
	for col := range s {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if !s.Info(col).HasScale {
			continue
		}
		if e, ok := ExtentOf(Values(rows, col)); ok {
			out[col] = e
		}
	}
	return out
}

func text(v any) (string, bool) {
	s, ok := celltype.ToText(v).(string)
	return s, ok
}
