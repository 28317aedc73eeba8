// Package schema infers a cell type for every column of a record set.
package schema

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/record"
)

// SampleSize bounds how many non-empty values the date and time detectors
// inspect per column.
const SampleSize = 30

// maxCategoryValues caps the distinct-value count of a category column.
const maxCategoryValues = 20

const oneYearMillis = float64(1000 * 60 * 60 * 24 * 365)

// Schema maps column name to cell type.
type Schema map[string]celltype.Type

// Type returns the cell type of column, defaulting to string.
func (s Schema) Type(column string) celltype.Type {
	if t, ok := s[column]; ok {
		return t
	}
	return celltype.String
}

// Info returns the capability record of column's type.
func (s Schema) Info(column string) celltype.Info {
	return s.Type(column).Info()
}

// WithOverrides returns a copy of s with the given column types replaced.
// Overrides for columns not in s are ignored.
func (s Schema) WithOverrides(overrides map[string]celltype.Type) Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	for col, t := range overrides {
		if _, ok := out[col]; ok && t.Valid() {
			out[col] = t
		}
	}
	return out
}

// Infer classifies every column of records. Columns come from the first
// record. An empty input yields an empty schema.
func Infer(records []record.Record) Schema {
	s := make(Schema)
	for _, col := range record.Columns(records) {
		s[col] = InferColumn(col, records)
	}
	if len(s) > 0 {
		zap.L().Debug("schema: inferred",
			zap.Int("columns", len(s)),
			zap.Int("rows", len(records)),
		)
	}
	return s
}

// InferColumn classifies a single column. Detectors run in order: date,
// time, array, object, numeric, then category versus string.
func InferColumn(column string, records []record.Record) celltype.Type {
	first, ok := firstValue(column, records)
	if !ok || !truthy(first) && !isZero(first) {
		return celltype.String
	}

	if s, isStr := first.(string); isStr {
		if _, ok := celltype.ParseDate(s); ok {
			if t, ok := classifyDates(column, records); ok {
				return t
			}
		}
		if _, ok := celltype.ParseTime(s); ok {
			if allSampled(column, records, isTimeString) {
				return celltype.Time
			}
		}
	}

	if celltype.IsArray(first) {
		return classifyArrays(column, first, records)
	}

	if _, isMap := first.(map[string]any); isMap {
		return celltype.Object
	}

	if _, isBool := first.(bool); !isBool {
		if _, ok := celltype.ToNumber(first); ok {
			if strings.ToLower(strings.TrimSpace(column)) == "year" {
				return celltype.Year
			}
			return celltype.Number
		}
	}

	limit := min(len(records)/3, maxCategoryValues)
	if distinctCount(column, records) < limit {
		return celltype.Category
	}
	return celltype.String
}

// firstValue returns the first defined, non-nil, non-empty-string value.
func firstValue(column string, records []record.Record) (any, bool) {
	for _, r := range records {
		v, ok := r.Get(column)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// truthyValues returns the column's values that are present and truthy.
func truthyValues(column string, records []record.Record) []any {
	var out []any
	for _, r := range records {
		if v := r.Value(column); truthy(v) {
			out = append(out, v)
		}
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	default:
		if f, ok := celltype.ToNumber(v); ok {
			return f != 0
		}
		if n, isFloat := v.(float64); isFloat && math.IsNaN(n) {
			return false
		}
		return true
	}
}

func isZero(v any) bool {
	if _, isBool := v.(bool); isBool {
		return false
	}
	if _, isStr := v.(string); isStr {
		return false
	}
	f, ok := celltype.ToNumber(v)
	return ok && f == 0
}

func isDateString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = celltype.ParseDate(s)
	return ok
}

func isTimeString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = celltype.ParseTime(s)
	return ok
}

// allSampled requires every sampled non-empty value to satisfy match.
func allSampled(column string, records []record.Record, match func(any) bool) bool {
	values := truthyValues(column, records)
	if len(values) > SampleSize {
		values = values[:SampleSize]
	}
	for _, v := range values {
		if !match(v) {
			return false
		}
	}
	return true
}

// classifyDates decides between date and short-range-date by the span of
// every parseable value in the column.
func classifyDates(column string, records []record.Record) (celltype.Type, bool) {
	if !allSampled(column, records, isDateString) {
		return "", false
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range truthyValues(column, records) {
		s, _ := v.(string)
		t, ok := celltype.ParseAny(s)
		if !ok {
			continue
		}
		ms := celltype.EpochMillis(t)
		lo = math.Min(lo, ms)
		hi = math.Max(hi, ms)
	}
	if hi-lo > oneYearMillis {
		return celltype.Date, true
	}
	return celltype.ShortRangeDate, true
}

func classifyArrays(column string, first any, records []record.Record) celltype.Type {
	head, ok := celltype.FirstElement(first)
	if _, isStr := head.(string); !ok || !isStr {
		return celltype.Array
	}
	for _, v := range truthyValues(column, records) {
		if celltype.ArrayLen(v) > 1 {
			return celltype.Array
		}
	}
	return celltype.ShortArray
}

// distinctCount counts distinct raw values across the full dataset. Missing
// and nil values count as one distinct value.
func distinctCount(column string, records []record.Record) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[distinctKey(r.Value(column))] = struct{}{}
	}
	return len(seen)
}

func distinctKey(v any) string {
	if v == nil {
		return "\x00nil"
	}
	s, _ := celltype.ToText(v).(string)
	return s
}
