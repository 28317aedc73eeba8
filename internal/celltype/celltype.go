// Package celltype defines the closed set of semantic cell types and the
// capabilities each one carries: parsing, formatting, sorting and filtering.
package celltype

import (
	"github.com/rotisserie/eris"
)

// Type is the semantic classification of a column's values.
type Type string

// Cell types.
const (
	String         Type = "string"
	Number         Type = "number"
	Year           Type = "year"
	Date           Type = "date"
	ShortRangeDate Type = "short-range-date"
	Time           Type = "time"
	Category       Type = "category"
	Array          Type = "array"
	ShortArray     Type = "short-array"
	Object         Type = "object"
)

// All lists every cell type.
var All = []Type{String, Number, Year, Date, ShortRangeDate, Time, Category, Array, ShortArray, Object}

// SortKind selects the comparison used when sorting a column.
type SortKind string

// Sort kinds.
const (
	SortString SortKind = "string"
	SortNumber SortKind = "number"
)

// FilterKind selects the filter widget and predicate for a column.
type FilterKind string

// Filter kinds.
const (
	FilterText     FilterKind = "text"
	FilterCategory FilterKind = "category"
	FilterRange    FilterKind = "range"
)

// Info is the capability record of a cell type.
type Info struct {
	Type         Type       `json:"type"`
	SortKind     SortKind   `json:"sort_kind"`
	Filter       FilterKind `json:"filter"`
	HasScale     bool       `json:"has_scale"`
	MinWidth     int        `json:"min_width,omitempty"`
	ExtraPadding int        `json:"extra_padding,omitempty"`
}

// Valid reports whether t is one of the known cell types.
func (t Type) Valid() bool {
	_, ok := Lookup(t)
	return ok
}

// Info returns the capability record for t. Unknown types get string
// capabilities.
func (t Type) Info() Info {
	info, ok := Lookup(t)
	if !ok {
		info, _ = Lookup(String)
		info.Type = t
	}
	return info
}

// Lookup returns the capability record for t.
func Lookup(t Type) (Info, bool) {
	switch t {
	case String, Object, Array, ShortArray:
		return Info{Type: t, SortKind: SortString, Filter: FilterText}, true
	case Category:
		return Info{Type: t, SortKind: SortString, Filter: FilterCategory, ExtraPadding: 6}, true
	case Number, Year:
		return Info{Type: t, SortKind: SortNumber, Filter: FilterRange, HasScale: true, MinWidth: 126}, true
	case Date, ShortRangeDate, Time:
		return Info{Type: t, SortKind: SortNumber, Filter: FilterRange, HasScale: true}, true
	default:
		return Info{}, false
	}
}

// ParseType converts a type name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", eris.Errorf("celltype: unknown cell type %q", s)
	}
	return t, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so types can be read
// from YAML and JSON documents.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
