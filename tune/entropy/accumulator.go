package entropy

import (
	"fmt"

	"github.com/cwbudde/algo-tune/internal/mathutil"
	"github.com/cwbudde/algo-tune/piano"
)

// negativeTolerance bounds how far below zero a bin may drift through
// floating-point cancellation before it is treated as a bookkeeping
// bug rather than rounding noise.
const negativeTolerance = 1e-10

// Accumulator maintains the running superposition of all key spectra,
// each shifted by its key's pitch, restricted to the cutoff window
// (lo, hi). Adding or removing one key is a single O(bins) pass.
type Accumulator struct {
	bins    []float64
	scratch []float64
	lo, hi  int
}

// NewAccumulator returns an empty accumulator with the given cutoff
// window.
func NewAccumulator(lo, hi int) *Accumulator {
	return &Accumulator{
		bins:    make([]float64, piano.NumBins),
		scratch: make([]float64, piano.NumBins),
		lo:      lo,
		hi:      hi,
	}
}

// Clear zeroes the accumulator.
func (a *Accumulator) Clear() {
	for m := range a.bins {
		a.bins[m] = 0
	}
}

// AddShifted adds (weight +1) or removes (weight −1) a spectrum
// translated by shift bins. Source bins are read through the cutoff
// window, so spectrum content inside the guard zones never enters the
// superposition.
//
// Removal clamps the tiny negative residues left by floating-point
// cancellation; a bin falling below −1e-10 means the add/remove
// bookkeeping is broken and panics.
func (a *Accumulator) AddShifted(s piano.Spectrum, shift int, weight float64) {
	for m := range a.bins {
		if v := s.Windowed(m-shift, a.lo, a.hi); v != 0 {
			a.bins[m] += v * weight
		}
	}
	if weight < 0 {
		a.clampNegatives()
	}
}

func (a *Accumulator) clampNegatives() {
	for m, v := range a.bins {
		if v < 0 {
			if v < -negativeTolerance {
				panic(fmt.Sprintf("entropy: accumulator bin %d fell to %g", m, v))
			}
			a.bins[m] = 0
		}
	}
}

// Rebuild recomputes the superposition from scratch: every key's
// spectrum enters once, shifted by its pitch relative to the pitch it
// was recorded at. The slices must have one entry per key.
func (a *Accumulator) Rebuild(keys []piano.Key, pitches, recorded []int) {
	a.Clear()
	for k := range keys {
		a.AddShifted(keys[k].Spectrum, pitches[k]-recorded[k], 1)
	}
}

// Entropy returns the Shannon entropy of the L1-normalized
// accumulator. The accumulator itself is not modified.
func (a *Accumulator) Entropy() float64 {
	return mathutil.NormalizedEntropy(a.bins, a.scratch)
}

// Mass returns the total accumulated intensity.
func (a *Accumulator) Mass() float64 {
	return piano.Spectrum(a.bins).Mass()
}
