package clim

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// PascalThreshold is the field mean above which a pressure field is
	// taken to be in Pa rather than hPa.
	PascalThreshold = 3000.0

	hPaPerPa = 0.01
)

// NaNMean returns the mean of the non-NaN values, or NaN if there are none.
func NaNMean(values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// ToHectopascals scales a pressure field from Pa to hPa in place if its mean
// exceeds PascalThreshold, and reports whether it did.
func ToHectopascals(values []float64) bool {
	if !(NaNMean(values) > PascalThreshold) {
		return false
	}
	floats.Scale(hPaPerPa, values)
	return true
}
