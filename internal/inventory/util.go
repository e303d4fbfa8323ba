package inventory

import (
	"math"
	"sort"

	"github.com/andresuchdata/replenish/internal/domain"
)

// roundFloat rounds v to the given number of decimal places, half to even.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.RoundToEven(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*factor) / factor
}

// nonNegative maps negative and non-finite quantities to 0.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// meanStd returns the mean and sample standard deviation of xs.
// A single observation has a deviation of 0.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) == 1 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

// meanDefined averages the valid values, undefined when none are valid.
func meanDefined(vs []domain.NullFloat64) domain.NullFloat64 {
	var sum float64
	var n int
	for _, v := range vs {
		if v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return domain.Undefined()
	}
	return domain.Defined(sum / float64(n))
}

func sortedKeys[V any](m map[domain.StoreSKU]V) []domain.StoreSKU {
	keys := make([]domain.StoreSKU, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func attributeIndex(attrs []domain.SKUAttributes) map[string]domain.SKUAttributes {
	out := make(map[string]domain.SKUAttributes, len(attrs))
	for _, a := range attrs {
		out[a.SKUID] = a
	}
	return out
}
