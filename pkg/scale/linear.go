// Package scale maps data domains onto pixel ranges and picks readable tick
// positions for axes.
package scale

import (
	"math"
	"strconv"
)

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Linear is a continuous numeric scale.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

func (s Linear) Domain() (float64, float64) { return s.d0, s.d1 }
func (s Linear) Range() (float64, float64)  { return s.r0, s.r1 }

// Map projects v into the range. A collapsed domain maps to the range middle.
func (s Linear) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	t := (v - s.d0) / (s.d1 - s.d0)
	return s.r0 + t*(s.r1-s.r0)
}

// Invert maps a range position back to the domain.
func (s Linear) Invert(p float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	t := (p - s.r0) / (s.r1 - s.r0)
	return s.d0 + t*(s.d1-s.d0)
}

// Ticks returns roughly count round values inside the domain.
func (s Linear) Ticks(count int) []float64 {
	return Ticks(s.d0, s.d1, count)
}

// Nice extends the domain to round tick boundaries.
func (s Linear) Nice(count int) Linear {
	start, stop := s.d0, s.d1
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	prev := 0.0
	for i := 0; i < 10; i++ {
		step := TickStep(start, stop, count)
		if step == prev || step == 0 || math.IsInf(step, 0) {
			break
		}
		start = math.Floor(start/step) * step
		stop = math.Ceil(stop/step) * step
		prev = step
	}
	if reverse {
		start, stop = stop, start
	}
	return NewLinear(start, stop, s.r0, s.r1)
}

// TickStep returns the round step that yields about count ticks between
// start and stop.
func TickStep(start, stop float64, count int) float64 {
	power, factor, ok := stepFactor(start, stop, count)
	if !ok {
		return 0
	}
	return factor * math.Pow(10, power)
}

func stepFactor(start, stop float64, count int) (power, factor float64, ok bool) {
	if count <= 0 || start == stop {
		return 0, 0, false
	}
	step := math.Abs(stop-start) / float64(count)
	power = math.Floor(math.Log10(step))
	err := step / math.Pow(10, power)
	factor = 1
	switch {
	case err >= e10:
		factor = 10
	case err >= e5:
		factor = 5
	case err >= e2:
		factor = 2
	}
	return power, factor, !math.IsNaN(power) && !math.IsInf(power, 0)
}

// Ticks returns multiples of the tick step inside [start, stop].
func Ticks(start, stop float64, count int) []float64 {
	if start == stop {
		return []float64{start}
	}
	lo, hi := math.Min(start, stop), math.Max(start, stop)
	i1, i2, inc, ok := tickSpec(lo, hi, count)
	if !ok || i2 < i1 {
		return nil
	}
	ticks := make([]float64, 0, int(i2-i1)+1)
	for i := i1; i <= i2; i++ {
		// sub-unit steps divide by the inverse to keep 0.3 from printing as
		// 0.30000000000000004
		if inc < 0 {
			ticks = append(ticks, i/-inc)
		} else {
			ticks = append(ticks, i*inc)
		}
	}
	return ticks
}

func tickSpec(start, stop float64, count int) (i1, i2, inc float64, ok bool) {
	power, factor, ok := stepFactor(start, stop, count)
	if !ok {
		return 0, 0, 0, false
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1, i2 = math.Round(start*inc), math.Round(stop*inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		return i1, i2, -inc, true
	}
	inc = factor * math.Pow(10, power)
	i1, i2 = math.Round(start/inc), math.Round(stop/inc)
	if i1*inc < start {
		i1++
	}
	if i2*inc > stop {
		i2--
	}
	return i1, i2, inc, true
}

// FormatTick prints v with just enough decimals for the given step.
func FormatTick(v, step float64) string {
	prec := 0
	if step > 0 && step < 1 {
		prec = int(math.Ceil(-math.Log10(step)))
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
