// Package sorter orders parsed rows by a single column.
package sorter

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
)

// Direction is a sort direction.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Spec names the sort column and direction. An empty Column means no sort.
type Spec struct {
	Column    string    `json:"column" yaml:"column"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// IsZero reports whether s requests no sort.
func (s Spec) IsZero() bool {
	return s.Column == ""
}

// DefaultDirection is ascending for text columns and descending otherwise.
func DefaultDirection(kind celltype.SortKind) Direction {
	if kind == celltype.SortString {
		return Asc
	}
	return Desc
}

// ParseDirection validates a direction name. Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc, "":
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", eris.Errorf("sorter: unknown direction %q", s)
	}
}

// ParseSpec reads "column" or "column:direction".
func ParseSpec(s string) (Spec, error) {
	col, dir, _ := strings.Cut(s, ":")
	d, err := ParseDirection(dir)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Column: strings.TrimSpace(col), Direction: d}, nil
}

// Apply returns rows ordered by spec. The sort is stable. Blank text and
// nil numbers always trail, whichever the direction. A zero spec returns
// the input order.
func Apply(rows []record.Row, spec Spec, kind celltype.SortKind) []record.Row {
	out := make([]record.Row, len(rows))
	copy(out, rows)
	if spec.IsZero() {
		return out
	}

	desc := spec.Direction == Desc
	if kind == celltype.SortNumber {
		slices.SortStableFunc(out, func(a, b record.Row) int {
			return compareNumbers(a.Value(spec.Column), b.Value(spec.Column), desc)
		})
		return out
	}

	type keyed struct {
		key string
		row record.Row
	}
	items := make([]keyed, len(out))
	for i, r := range out {
		items[i] = keyed{key: textKey(r.Value(spec.Column)), row: r}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		return compareText(a.key, b.key, desc)
	})
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// textKey upper-cases and trims leading whitespace. Blank values map to "".
func textKey(v any) string {
	s, _ := celltype.ToText(v).(string)
	s = strings.ToUpper(s)
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func compareText(a, b string, desc bool) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	if desc {
		return strings.Compare(b, a)
	}
	return strings.Compare(a, b)
}

func compareNumbers(a, b any, desc bool) int {
	fa, okA := celltype.ToNumber(a)
	fb, okB := celltype.ToNumber(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if desc {
		return cmp.Compare(fb, fa)
	}
	return cmp.Compare(fa, fb)
}
