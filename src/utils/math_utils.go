package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundFloats rounds every element of vals in place and returns it.
func RoundFloats(vals []float64, precision uint) []float64 {
	for i, v := range vals {
		vals[i] = RoundFloat(v, precision)
	}
	return vals
}

// MinFloat returns the smallest value of vals, or 0 for an empty slice.
func MinFloat(vals ...float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
