package facet

import (
	"math"
	"slices"
)

// DefaultBins is the bin count used when no width hint is available.
const DefaultBins = 11

// smallSample is the size below which a few evenly spaced distinct values
// get one bin each.
const smallSample = 200

// Bin is one histogram bucket. Low is inclusive; High is exclusive except
// for the last bin. Count is over the original values, Filtered over the
// filtered ones.
type Bin struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Count    int     `json:"count"`
	Filtered int     `json:"filtered"`
}

// BinsForWidth derives a bin count from the pixel width of a histogram.
func BinsForWidth(width int) int {
	if width <= 0 {
		return DefaultBins
	}
	return max(1, int(float64(width/6)*0.55))
}

// Histogram buckets original into roughly count bins on "nice" boundaries
// and counts filtered against the same bins. Small samples of up to eleven
// evenly spaced distinct values are binned on those values instead.
func Histogram(original, filtered []float64, count int) []Bin {
	if len(original) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultBins
	}

	edges := niceEdges(original, count)
	if len(original) < smallSample {
		uniq := distinctSorted(original)
		if n := len(uniq); n > 1 && n < 12 {
			if evenlySpaced(uniq) {
				edges = uniq
			} else if len(edges)-1 > n {
				edges = niceEdges(original, n)
			}
		}
	}

	bins := make([]Bin, max(1, len(edges)-1))
	for i := range bins {
		bins[i].Low = edges[i]
		bins[i].High = edges[min(i+1, len(edges)-1)]
	}
	for _, v := range original {
		if i := binIndex(bins, v); i >= 0 {
			bins[i].Count++
		}
	}
	for _, v := range filtered {
		if i := binIndex(bins, v); i >= 0 {
			bins[i].Filtered++
		}
	}
	return bins
}

// FocusedBin returns the index of the bin holding v, or -1.
func FocusedBin(bins []Bin, v float64) int {
	return binIndex(bins, v)
}

func binIndex(bins []Bin, v float64) int {
	last := len(bins) - 1
	for i, b := range bins {
		if v >= b.Low && (v < b.High || (i == last && v <= b.High)) {
			return i
		}
	}
	return -1
}

// niceEdges returns bin boundaries covering the extent of values in steps
// of 1, 2 or 5 times a power of ten.
func niceEdges(values []float64, count int) []float64 {
	e, _ := ExtentOf(values)
	if e.Min == e.Max {
		return []float64{e.Min, e.Max}
	}
	step := tickStep(e.Min, e.Max, count)
	lo := math.Floor(e.Min/step) * step
	hi := math.Ceil(e.Max/step) * step
	n := int(math.Round((hi - lo) / step))
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[n] = hi
	return edges
}

func tickStep(start, stop float64, count int) float64 {
	step0 := (stop - start) / float64(count)
	step1 := math.Pow(10, math.Floor(math.Log10(step0)))
	switch ratio := step0 / step1; {
	case ratio >= math.Sqrt(50):
		step1 *= 10
	case ratio >= math.Sqrt(10):
		step1 *= 5
	case ratio >= math.Sqrt(2):
		step1 *= 2
	}
	return step1
}

func distinctSorted(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func evenlySpaced(sorted []float64) bool {
	gap := sorted[1] - sorted[0]
	for i := 2; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] != gap {
			return false
		}
	}
	return true
}
