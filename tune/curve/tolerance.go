package curve

import "github.com/cwbudde/algo-tune/internal/mathutil"

// The tolerance corridor is a pair of cubics in dk = key − A4,
//
//	t(dk) = 5 + a·dk² + b·dk³
//
// one per side, with coefficients chosen so the corridor hits 30 cents
// at A0 (dk = −48), 15 at A2 (dk = −24), 5 at A4, 15 at A6 (dk = 24)
// and 30 at A7 (dk = 36).
var (
	bassA, bassB     = cubicThrough(-48, 30, -24, 15)
	trebleA, trebleB = cubicThrough(24, 15, 36, 30)
)

// cubicThrough solves 5 + a·dk² + b·dk³ = v for the two anchor points.
func cubicThrough(dk1, v1, dk2, v2 float64) (a, b float64) {
	d1, d2 := dk1*dk1, dk2*dk2
	det := d1 * d2 * (dk2 - dk1)
	a = ((v1-5)*d2*dk2 - (v2-5)*d1*dk1) / det
	b = (d1*(v2-5) - d2*(v1-5)) / det
	return a, b
}

// Tolerance returns the allowed deviation, in integer cents, of a key's
// pitch from the initial tuning curve. Deviations are bounded tightly
// near A4 where the ear is most sensitive and loosely at the extremes
// of the compass.
func Tolerance(key, a4 int) int {
	dk := float64(key - a4)
	var t float64
	if dk < 0 {
		t = 5 + bassA*dk*dk + bassB*dk*dk*dk
	} else {
		t = 5 + trebleA*dk*dk + trebleB*dk*dk*dk
	}
	return mathutil.RoundToInt(t)
}
