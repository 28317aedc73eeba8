package celltype

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Format renders a normalized value for display. Nil renders as "".
func Format(t Type, v any) string {
	if v == nil {
		return ""
	}
	switch t {
	case Number, Year:
		if f, ok := ToNumber(v); ok {
			return formatPlain(f)
		}
	case Date, ShortRangeDate:
		if f, ok := ToNumber(v); ok {
			return FromEpochMillis(f).Format("January 2 2006")
		}
	case Time:
		if f, ok := ToNumber(v); ok {
			tm := FromEpochMillis(f)
			return tm.Format("January 2, 2006 ") + strconv.Itoa(tm.Hour()) + tm.Format(":04")
		}
	}
	s, _ := ToText(v).(string)
	return s
}

// ShortFormat renders a compact form of a normalized value, used in axis
// labels and narrow cells.
func ShortFormat(t Type, v any) string {
	if v == nil {
		return ""
	}
	switch t {
	case Number:
		if f, ok := ToNumber(v); ok {
			return shortNumber(f)
		}
	case ShortRangeDate:
		if f, ok := ToNumber(v); ok {
			return FromEpochMillis(f).Format("1/2")
		}
	case Date:
		if f, ok := ToNumber(v); ok {
			return FromEpochMillis(f).Format("2006")
		}
	case Time:
		if f, ok := ToNumber(v); ok {
			tm := FromEpochMillis(f)
			return tm.Format("1/2 ") + strconv.Itoa(tm.Hour()) + tm.Format(":04")
		}
	}
	return Format(t, v)
}

func formatPlain(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isAlmostInteger(f float64) bool {
	return math.Abs(math.Round(f)-f) < 0.06
}

// shortNumber keeps small integers exact, small fractions at two decimals,
// and abbreviates everything else with an SI prefix at two significant digits.
func shortNumber(f float64) string {
	switch {
	case f < 1000 && isAlmostInteger(f):
		return humanize.Comma(int64(math.Round(f)))
	case f < 1:
		return strconv.FormatFloat(f, 'f', 2, 64)
	default:
		return siTwoDigits(f)
	}
}

func siTwoDigits(f float64) string {
	rounded := roundSignificant(f, 2)
	value, prefix := humanize.ComputeSI(rounded)
	decimals := 0
	if math.Abs(value) < 10 {
		decimals = 1
	}
	return strconv.FormatFloat(value, 'f', decimals, 64) + prefix
}

func roundSignificant(f float64, digits int) float64 {
	if f == 0 {
		return 0
	}
	shift := math.Ceil(math.Log10(math.Abs(f))) - float64(digits)
	if shift <= 0 {
		scale := math.Pow(10, -shift)
		return math.Round(f*scale) / scale
	}
	pow := math.Pow(10, shift)
	return math.Round(f/pow) * pow
}
