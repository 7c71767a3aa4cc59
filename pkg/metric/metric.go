// Package metric summarises series values for reports.
package metric

import (
	"math/rand"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one series
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Last   float64
}

// Summarize computes a Summary; an empty input yields the zero value.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
		Last:   values[len(values)-1],
	}
}

// Mean calculates the arithmetic mean of the values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Median calculates the empirical median of the values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// BootstrapInterval is a confidence interval estimated by resampling.
type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap estimates the confidence interval of measure over values by
// drawing samples resamples with replacement from rng.
func Bootstrap(values []float64, measure func([]float64) float64, samples int,
	confidence float64, rng *rand.Rand) BootstrapInterval {

	if len(values) == 0 || samples <= 0 {
		return BootstrapInterval{}
	}

	data := lo.Times(samples, func(int) float64 {
		resample := lo.Times(len(values), func(int) float64 {
			return values[rng.Intn(len(values))]
		})
		return measure(resample)
	})

	tail := 1 - confidence
	sort.Float64s(data)

	mean, stdDev := stat.MeanStdDev(data, nil)
	return BootstrapInterval{
		Lower:  stat.Quantile(tail/2, stat.LinInterp, data, nil),
		Upper:  stat.Quantile(1-tail/2, stat.LinInterp, data, nil),
		StdDev: stdDev,
		Mean:   mean,
	}
}
