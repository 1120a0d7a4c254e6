package curve

import "github.com/cwbudde/algo-tune/piano"

// minSideKeys is the number of keys required on each side of A4 before
// the estimator produces a non-trivial curve. The anchor segment spans
// A3..A5 and the leftward extension matches partials twelve keys apart,
// so anything narrower is seeded flat.
const minSideKeys = 13

// Estimate returns the initial tuning curve in cents, one value per
// key, derived from the keys' inharmonicity coefficients.
//
// The curve is built in three steps: a linear anchor segment between A3
// and A5 whose endpoints make the second partial of A4 coincide with A5
// and the fourth partial of A3 coincide with the second of A4; a
// rightward extension matching the 4:2 and 2:1 partial pairs one octave
// down; and a leftward extension blending the 6:3 and 10:5 pairs one
// octave up, weighted towards 10:5 at the bass end.
//
// Pianos with fewer than minSideKeys keys on either side of A4 get an
// all-zero curve.
func Estimate(p *piano.Piano) []float64 {
	n := p.NumKeys()
	out := make([]float64, n)
	a4 := p.A4
	if a4 < minSideKeys || n-1-a4 < minSideKeys {
		return out
	}

	cents := func(key, partial int) float64 {
		return piano.PartialStretch(p.Keys[key].Inharmonicity, partial)
	}

	a3, a5 := a4-12, a4+12
	pitchA5 := cents(a4, 2)
	pitchA3 := cents(a4, 2) - cents(a3, 4)

	for k := a3; k < a4; k++ {
		out[k] = pitchA3 * float64(a4-k) / 12
	}
	for k := a4 + 1; k <= a5; k++ {
		out[k] = pitchA5 * float64(k-a4) / 12
	}
	out[a4] = 0

	for k := a5 + 1; k < n; k++ {
		p42 := out[k-12] + cents(k-12, 4) - cents(k, 2)
		p21 := out[k-12] + cents(k-12, 2)
		out[k] = 0.3*p42 + 0.7*p21
	}

	for k := a3 - 1; k >= 0; k-- {
		p63 := out[k+12] + cents(k+12, 3) - cents(k, 6)
		p105 := out[k+12] + cents(k+12, 5) - cents(k, 10)
		fraction := float64(k) / float64(a3)
		out[k] = p63*fraction + p105*(1-fraction)
	}

	return out
}
