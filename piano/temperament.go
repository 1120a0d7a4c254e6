package piano

import "math"

const centsPerOctave = 1200.0

// CentsBetween returns the interval from f1 to f2 in cents. Positive
// when f2 is higher.
func CentsBetween(f1, f2 float64) float64 {
	return centsPerOctave * math.Log2(f2/f1)
}

// CentsToRatio converts a cent offset to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	return math.Exp2(cents / centsPerOctave)
}

// PartialStretch returns the deviation, in cents, of the n-th partial of
// a string with inharmonicity coefficient b from n times its fundamental:
//
//	(600/ln 2) · ln((1 + n²b) / (1 + b))
//
// which follows from the partial frequency relation
// f_n = n·f_1·√(1 + n²b). The stretch is zero for an ideal string
// (b = 0) and grows with both n and b.
func PartialStretch(b float64, n int) float64 {
	if b <= 0 {
		return 0
	}
	nn := float64(n) * float64(n)
	return 600 / math.Ln2 * math.Log((1+nn*b)/(1+b))
}
