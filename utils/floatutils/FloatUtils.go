// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] > max {
			max = values[i]
			indices = []int{i}
		} else if values[i] == max {
			indices = append(indices, i)
		}
	}
	return
}

// MovingAverage returns the means of every window consecutive values,
// len(values)-window+1 of them. It returns nil if there are fewer than
// window values.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	out := make([]float64, len(values)-window+1)
	sum := floats.Sum(values[:window])
	out[0] = sum / float64(window)
	for i := window; i < len(values); i++ {
		sum += values[i] - values[i-window]
		out[i-window+1] = sum / float64(window)
	}
	return out
}
