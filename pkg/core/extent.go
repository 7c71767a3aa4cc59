package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Extent returns the minimum and maximum of values. ok is false for an
// empty input.
func Extent[T constraints.Ordered](values []T) (lo, hi T, ok bool) {
	if len(values) == 0 {
		return lo, hi, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// YValues flattens the y values of the given series, skipping hidden ones
// when visibleOnly is set.
func YValues(series []Series, visibleOnly bool) []float64 {
	values := make([]float64, 0)
	for _, s := range series {
		if visibleOnly && s.Hidden {
			continue
		}
		for _, p := range s.Data {
			values = append(values, p.Y)
		}
	}
	return values
}

// MaxY is the largest y over every point of every series, or 0 when there
// are none.
func MaxY(series []Series) float64 {
	_, hi, ok := Extent(YValues(series, false))
	if !ok || math.IsInf(hi, 0) || math.IsNaN(hi) {
		return 0
	}
	return hi
}

// DecimalPlaces counts the digits after the point in the shortest
// representation of v.
func DecimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i > -1 {
		return len(s) - i - 1
	}
	return 0
}
