package celltype

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Parse converts a raw value into the normalized value for t. It never
// panics; values that cannot be converted become nil.
//
// Normalized forms: text types yield string, numeric types yield float64,
// and date-like types yield float64 epoch milliseconds in UTC.
func Parse(t Type, raw any) any {
	switch t {
	case String, Category:
		return ToText(raw)
	case Object:
		return parseObject(raw)
	case Array:
		return parseArray(raw)
	case ShortArray:
		return parseShortArray(raw)
	case Number, Year:
		if f, ok := ToNumber(raw); ok {
			return f
		}
		return nil
	case Date, ShortRangeDate, Time:
		return parseDateValue(raw)
	default:
		return raw
	}
}

// ToText renders a scalar raw value as a string. Nil stays nil; composite
// values are JSON encoded.
func ToText(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// ToNumber coerces raw into a finite float64. Strings are trimmed first;
// the empty string is not a number.
func ToNumber(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseObject(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return v
	case map[string]any, []any:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return nil
	}
}

func parseArray(raw any) any {
	switch v := raw.(type) {
	case string:
		return v
	default:
		items, ok := asSlice(raw)
		if !ok {
			return nil
		}
		if len(items) == 1 {
			return "[1 item]"
		}
		return fmt.Sprintf("[%d items]", len(items))
	}
}

func parseShortArray(raw any) any {
	items, ok := asSlice(raw)
	if !ok {
		return ToText(raw)
	}
	if len(items) == 0 {
		return nil
	}
	return ToText(items[0])
}

func asSlice(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// IsArray reports whether raw is a slice value.
func IsArray(raw any) bool {
	_, ok := asSlice(raw)
	return ok
}

// ArrayLen returns the length of a slice value, or 0.
func ArrayLen(raw any) int {
	items, _ := asSlice(raw)
	return len(items)
}

// FirstElement returns the first element of a slice value.
func FirstElement(raw any) (any, bool) {
	items, ok := asSlice(raw)
	if !ok || len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

func parseDateValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		return EpochMillis(v)
	case string:
		t, ok := ParseAny(v)
		if !ok {
			return nil
		}
		return EpochMillis(t)
	default:
		if f, ok := ToNumber(raw); ok {
			return f
		}
		return nil
	}
}
