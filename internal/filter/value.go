// Package filter narrows parsed rows by per-column text, category and range
// predicates.
package filter

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Value is one column's filter: either text or an inclusive numeric range.
// Date columns compare on epoch milliseconds.
type Value struct {
	Text  string
	Range *Range
}

// Range is an inclusive [Low, High] interval.
type Range struct {
	Low  float64
	High float64
}

// Set maps column name to its active filter.
type Set map[string]Value

// Text returns a text filter.
func Text(s string) Value {
	return Value{Text: s}
}

// Between returns an inclusive range filter. Bounds are swapped if reversed.
func Between(low, high float64) Value {
	if low > high {
		low, high = high, low
	}
	return Value{Range: &Range{Low: low, High: high}}
}

// IsRange reports whether v is a range filter.
func (v Value) IsRange() bool {
	return v.Range != nil
}

// IsEmpty reports whether v filters nothing.
func (v Value) IsEmpty() bool {
	return v.Range == nil && v.Text == ""
}

// Contains reports whether f falls within the range.
func (r Range) Contains(f float64) bool {
	return f >= r.Low && f <= r.High
}

// String renders v in the form accepted by ParseValue.
func (v Value) String() string {
	if v.Range != nil {
		return formatBound(v.Range.Low) + ".." + formatBound(v.Range.High)
	}
	return v.Text
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseValue reads "low..high" as a range and anything else as text.
func ParseValue(s string) Value {
	if lo, hi, ok := strings.Cut(s, ".."); ok {
		low, errLo := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		high, errHi := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if errLo == nil && errHi == nil {
			return Between(low, high)
		}
	}
	return Text(s)
}

// ParseAssignment reads "column=value" as used on the command line.
func ParseAssignment(s string) (string, Value, error) {
	col, val, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return "", Value{}, eris.Errorf("filter: expected column=value, got %q", s)
	}
	return strings.TrimSpace(col), ParseValue(val), nil
}

// MarshalJSON writes a string for text filters and [low, high] for ranges.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Range != nil {
		return json.Marshal([2]float64{v.Range.Low, v.Range.High})
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a string or a two-element number array.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var bounds []float64
	if err := json.Unmarshal(data, &bounds); err != nil {
		return eris.Wrap(err, "filter: decode value")
	}
	if len(bounds) != 2 {
		return eris.Errorf("filter: range needs 2 bounds, got %d", len(bounds))
	}
	*v = Between(bounds[0], bounds[1])
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (any, error) {
	if v.Range != nil {
		return []float64{v.Range.Low, v.Range.High}, nil
	}
	return v.Text, nil
}

// UnmarshalYAML accepts a scalar or a two-element sequence.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Text(node.Value)
		return nil
	case yaml.SequenceNode:
		var bounds []float64
		if err := node.Decode(&bounds); err != nil {
			return eris.Wrap(err, "filter: decode range")
		}
		if len(bounds) != 2 {
			return eris.Errorf("filter: range needs 2 bounds, got %d", len(bounds))
		}
		*v = Between(bounds[0], bounds[1])
		return nil
	default:
		return eris.Errorf("filter: unsupported yaml node at line %d", node.Line)
	}
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if v.Range != nil {
			r := *v.Range
			v.Range = &r
		}
		out[k] = v
	}
	return out
}
