// Package testutil provides synthetic pianos and a spectrum
// well-formedness assertion for the tuning engine's tests.
package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tune/piano"
)

// Bump writes a unit-mass Gaussian bump of the given sigma (in bins)
// into s, centered on bin center. A sigma of zero produces a single-bin
// spike. Existing content is overwritten.
func Bump(s piano.Spectrum, center int, sigma float64) {
	for m := range s {
		s[m] = 0
	}
	if sigma <= 0 {
		if center >= 0 && center < len(s) {
			s[center] = 1
		}
		return
	}

	half := int(3*sigma) + 1
	sum := 0.0
	for m := center - half; m <= center+half; m++ {
		if m < 0 || m >= len(s) {
			continue
		}
		d := float64(m-center) / sigma
		s[m] = math.Exp(-0.5 * d * d)
		sum += s[m]
	}
	for m := center - half; m <= center+half; m++ {
		if m >= 0 && m < len(s) {
			s[m] /= sum
		}
	}
}

// StackedPiano returns an n-key piano whose keys all carry an identical
// bump at A4's equal temperament bin. With every pitch at zero the
// superposition is a single stacked bump, which makes the entropy
// landscape of the minimizer trivial to reason about.
func StackedPiano(n, a4 int, sigma float64) *piano.Piano {
	p := piano.New(n, a4)
	center := piano.FreqToBin(p.ET440(a4))
	for k := range p.Keys {
		Bump(p.Keys[k].Spectrum, center, sigma)
	}
	return p
}

// ChoirPiano returns an n-key piano with a bump at each key's own
// equal temperament bin, the shape a perfectly tuned zero-inharmonicity
// instrument would record.
func ChoirPiano(n, a4 int, sigma float64) *piano.Piano {
	p := piano.New(n, a4)
	for k := range p.Keys {
		Bump(p.Keys[k].Spectrum, piano.FreqToBin(p.ET440(k)), sigma)
	}
	return p
}

// ShiftKey translates key k's spectrum by the given number of bins
// (positive = up in frequency).
func ShiftKey(p *piano.Piano, k, bins int) {
	s := p.Keys[k].Spectrum
	out := piano.NewSpectrum()
	for m := range s {
		src := m - bins
		if src >= 0 && src < len(s) {
			out[m] = s[src]
		}
	}
	p.Keys[k].Spectrum = out
}

// RequireWellFormed fails t unless every bin of s is finite and
// non-negative, the invariant every pipeline stage must preserve.
func RequireWellFormed(t *testing.T, s piano.Spectrum) {
	t.Helper()
	for m, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("bin %d: non-finite intensity %v", m, v)
		}
		if v < 0 {
			t.Fatalf("bin %d: negative intensity %v", m, v)
		}
	}
}

// MaxAbs returns the largest absolute element of data.
func MaxAbs(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
