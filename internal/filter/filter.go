package filter

import (
	"sort"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// Apply returns the rows passing every filter in set. Input rows are never
// modified.
//
// Filters combine with AND. Category columns match text exactly; other text
// filters use ranked fuzzy matching; range filters test the normalized value
// inclusively and never match nil. When any fuzzy filter is active the
// result is ordered by total match rank, best first, ties keeping input
// order, so the outcome does not depend on the order filters are applied.
func Apply(rows []record.Row, set Set, s schema.Schema) []record.Row {
	columns := activeColumns(set)
	if len(columns) == 0 {
		out := make([]record.Row, len(rows))
		copy(out, rows)
		return out
	}

	type scored struct {
		row  record.Row
		rank Rank
	}
	var kept []scored
	ranked := false

rows:
	for _, r := range rows {
		var total Rank
		for _, col := range columns {
			v := set[col]
			switch {
			case v.IsRange():
				f, ok := celltype.ToNumber(r.Value(col))
				if !ok || !v.Range.Contains(f) {
					continue rows
				}
			case s.Info(col).Filter == celltype.FilterCategory:
				if textOf(r.Value(col)) != v.Text {
					continue rows
				}
			default:
				ranked = true
				rank := RankMatch(textOf(r.Value(col)), v.Text)
				if rank < Threshold {
					continue rows
				}
				total += rank
			}
		}
		kept = append(kept, scored{row: r, rank: total})
	}

	if ranked {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].rank > kept[j].rank
		})
	}

	out := make([]record.Row, len(kept))
	for i, k := range kept {
		out[i] = k.row
	}
	return out
}

// Matches reports whether a single row passes a single column filter.
func Matches(r record.Row, column string, v Value, s schema.Schema) bool {
	return len(Apply([]record.Row{r}, Set{column: v}, s)) == 1
}

// activeColumns returns the non-empty filter columns in name order.
func activeColumns(set Set) []string {
	cols := make([]string, 0, len(set))
	for col, v := range set {
		if !v.IsEmpty() {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

func textOf(v any) string {
	s, _ := celltype.ToText(v).(string)
	return s
}
