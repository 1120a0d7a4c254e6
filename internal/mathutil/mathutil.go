// Package mathutil provides the small numeric kernel shared by the
// tuning pipeline: Shannon entropy, mass normalization and rounding.
package mathutil

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Entropy returns the Shannon entropy −Σ p·ln p of a probability
// vector, with the convention 0·ln 0 = 0. The input must already be
// normalized; see NormalizedEntropy for raw intensity vectors.
func Entropy(p []float64) float64 {
	h := 0.0
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h
}

// NormalizedEntropy returns the Shannon entropy of x after L1
// normalization, without mutating x. scratch is reused as working
// memory when it has the right length, which keeps the hot entropy
// evaluation in the Monte Carlo loop allocation-free.
//
// A vector with no mass has zero entropy.
func NormalizedEntropy(x, scratch []float64) float64 {
	mass := vecmath.Sum(x)
	if mass <= 0 {
		return 0
	}
	if len(scratch) != len(x) {
		scratch = make([]float64, len(x))
	}
	vecmath.ScaleBlock(scratch, x, 1/mass)
	return Entropy(scratch)
}

// NormalizeMass rescales x in place so its total mass equals target.
// Vectors without mass are left untouched and reported as false.
func NormalizeMass(x []float64, target float64) bool {
	mass := vecmath.Sum(x)
	if mass <= 0 {
		return false
	}
	vecmath.ScaleBlockInPlace(x, target/mass)
	return true
}

// RoundToInt rounds to the nearest integer, halves away from zero.
func RoundToInt(x float64) int {
	return int(math.Round(x))
}
