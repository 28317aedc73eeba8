// Package diff aligns a dataset against a comparison dataset on an inferred
// unique column and marks rows as new, old or modified.
package diff

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/parse"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// Result is the outcome of a diff. UniqueColumn is empty when no column
// qualified as a key, in which case Rows carry no status.
type Result struct {
	UniqueColumn string       `json:"unique_column,omitempty"`
	Rows         []record.Row `json:"rows"`
}

// Summary counts rows per status.
type Summary struct {
	New      int `json:"new"`
	Modified int `json:"modified"`
	Old      int `json:"old"`
}

// Change is a row carrying a status, with its position in the slice it was
// found in.
type Change struct {
	Position int        `json:"position"`
	Row      record.Row `json:"row"`
}

// Compute diffs current against comparison. Current rows keep their order;
// comparison rows whose key is absent from current are appended as old.
// Any status already present on current rows is replaced.
func Compute(current []record.Row, comparison []record.Record, s schema.Schema) Result {
	base := make([]record.Row, len(current))
	for i, r := range current {
		base[i] = r.WithoutStatus()
	}
	if len(comparison) == 0 {
		return Result{Rows: base}
	}

	columns := columnOrder(current, s)
	key, ok := UniqueColumn(base, columns, s)
	if !ok {
		zap.L().Debug("diff: no unique column, skipping", zap.Int("rows", len(base)))
		return Result{Rows: base}
	}

	parsed := parse.Rows(comparison, s)
	byKey := make(map[string]record.Row, len(parsed))
	for _, r := range parsed {
		byKey[keyOf(r.Value(key))] = r
	}

	seen := make(map[string]struct{}, len(base))
	out := make([]record.Row, 0, len(base)+len(parsed))
	for _, r := range base {
		k := keyOf(r.Value(key))
		seen[k] = struct{}{}

		old, found := byKey[k]
		if !found {
			r.Status = record.StatusNew
			out = append(out, r)
			continue
		}
		if changed := modifiedColumns(r, old, columns, s); len(changed) > 0 {
			r.Status = record.StatusModified
			r.ModifiedColumns = changed
		}
		out = append(out, r)
	}

	next := len(base)
	for _, r := range parsed {
		if _, ok := seen[keyOf(r.Value(key))]; ok {
			continue
		}
		r.Status = record.StatusOld
		r.Index = next
		next++
		out = append(out, r)
	}

	return Result{UniqueColumn: key, Rows: out}
}

// UniqueColumn picks the join key: among string-kind columns, plus numeric
// columns named "id", the one with the most distinct values. It qualifies
// only when that count equals the row count. Ties go to the earlier column.
func UniqueColumn(rows []record.Row, columns []string, s schema.Schema) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}

	best, bestCount := "", -1
	for _, col := range columns {
		if !isCandidate(col, s) {
			continue
		}
		distinct := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			distinct[keyOf(r.Value(col))] = struct{}{}
		}
		if len(distinct) > bestCount {
			best, bestCount = col, len(distinct)
		}
	}
	if bestCount != len(rows) {
		return "", false
	}
	return best, true
}

func isCandidate(column string, s schema.Schema) bool {
	kind := s.Info(column).SortKind
	if kind == celltype.SortString {
		return true
	}
	return strings.ToLower(column) == "id" && kind == celltype.SortNumber
}

func modifiedColumns(cur, old record.Row, columns []string, s schema.Schema) []string {
	var changed []string
	for _, col := range columns {
		if s.Type(col) == celltype.Object {
			if !cmp.Equal(cur.RawValue(col), old.RawValue(col)) {
				changed = append(changed, col)
			}
			continue
		}
		if !sameValue(cur.Value(col), old.Value(col)) {
			changed = append(changed, col)
		}
	}
	return changed
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := a.(float64); ok {
		fb, ok := b.(float64)
		return ok && fa == fb
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return cmp.Equal(a, b)
}

func keyOf(v any) string {
	if v == nil {
		return "\x00nil"
	}
	s, _ := celltype.ToText(v).(string)
	return s
}

// columnOrder lists schema columns in the order of the first current row's
// raw keys, then any remaining schema columns by name.
func columnOrder(rows []record.Row, s schema.Schema) []string {
	var cols []string
	seen := make(map[string]bool, len(s))
	if len(rows) > 0 {
		for _, k := range rows[0].Raw.Keys() {
			if _, ok := s[k]; ok && !seen[k] {
				cols = append(cols, k)
				seen[k] = true
			}
		}
	}
	var rest []string
	for k := range s {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// Changed returns the rows that carry a status, with their positions.
func Changed(rows []record.Row) []Change {
	var out []Change
	for i, r := range rows {
		if r.Status != record.StatusNone {
			out = append(out, Change{Position: i, Row: r})
		}
	}
	return out
}

// Summarize counts rows per status.
func Summarize(rows []record.Row) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Status {
		case record.StatusNew:
			s.New++
		case record.StatusModified:
			s.Modified++
		case record.StatusOld:
			s.Old++
		}
	}
	return s
}
