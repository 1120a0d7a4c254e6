package entropy

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-tune/internal/testutil"
	"github.com/cwbudde/algo-tune/piano"
	"pgregory.net/rapid"
)

func TestAddRemoveRoundTrip(t *testing.T) {
	// Inserting and removing the same spectrum at the same shift
	// must leave an exactly empty accumulator.
	s := piano.NewSpectrum()
	testutil.Bump(s, 4900, 12)

	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
	a.AddShifted(s, 17, 1)
	a.AddShifted(s, 17, -1)

	if peak := testutil.MaxAbs(a.bins); peak > 1e-12 {
		t.Errorf("residue after add/remove round trip: %g", peak)
	}
}

func TestSingleSpikeInsert(t *testing.T) {
	// One single-bin spike inserted once occupies exactly one bin.
	s := piano.NewSpectrum()
	s[4900] = 1

	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
	a.AddShifted(s, 25, 1)

	nonZero := 0
	for m, v := range a.bins {
		if v != 0 {
			nonZero++
			if m != 4925 {
				t.Errorf("content at bin %d, want 4925", m)
			}
		}
	}
	if nonZero != 1 {
		t.Errorf("%d non-zero bins, want 1", nonZero)
	}
}

func TestGuardZonesBlockSourceContent(t *testing.T) {
	// Spectrum content inside the guard zones never enters the
	// accumulator, regardless of where the shift would place it.
	s := piano.NewSpectrum()
	s[50] = 1                            // low guard
	s[piano.NumBins-piano.GuardBins] = 1 // upper cutoff

	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
	a.AddShifted(s, 0, 1)
	a.AddShifted(s, 30, 1)
	if mass := a.Mass(); mass != 0 {
		t.Errorf("guard zone leaked mass %v", mass)
	}
}

func TestNegativeBinPanics(t *testing.T) {
	s := piano.NewSpectrum()
	s[4900] = 1

	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)

	defer func() {
		if recover() == nil {
			t.Error("removing from an empty accumulator did not panic")
		}
	}()
	a.AddShifted(s, 0, -1)
}

func TestAccumulatorProperties(t *testing.T) {
	// Any insert/remove sequence that never removes more than it
	// inserted keeps all bins non-negative and matches a from-scratch
	// replay.
	rapid.Check(t, func(t *rapid.T) {
		numSpectra := rapid.IntRange(1, 4).Draw(t, "numSpectra")
		spectra := make([]piano.Spectrum, numSpectra)
		shifts := make([]int, numSpectra)
		for i := range spectra {
			spectra[i] = piano.NewSpectrum()
			center := rapid.IntRange(200, 9400).Draw(t, fmt.Sprintf("center%d", i))
			sigma := rapid.Float64Range(0, 6).Draw(t, fmt.Sprintf("sigma%d", i))
			testutil.Bump(spectra[i], center, sigma)
			shifts[i] = rapid.IntRange(-60, 60).Draw(t, fmt.Sprintf("shift%d", i))
		}

		a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
		for i := range spectra {
			a.AddShifted(spectra[i], shifts[i], 1)
		}

		// Move each spectrum once, as the minimizer would.
		for i := range spectra {
			next := shifts[i] + rapid.IntRange(-10, 10).Draw(t, fmt.Sprintf("step%d", i))
			a.AddShifted(spectra[i], shifts[i], -1)
			a.AddShifted(spectra[i], next, 1)
			shifts[i] = next
		}

		for m, v := range a.bins {
			if v < -negativeTolerance {
				t.Fatalf("bin %d negative: %g", m, v)
			}
		}

		replay := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
		for i := range spectra {
			replay.AddShifted(spectra[i], shifts[i], 1)
		}
		for m := range a.bins {
			if math.Abs(a.bins[m]-replay.bins[m]) > 1e-9 {
				t.Fatalf("bin %d: incremental %g vs replay %g", m, a.bins[m], replay.bins[m])
			}
		}
	})
}

func TestEntropyOfStack(t *testing.T) {
	s := piano.NewSpectrum()
	s[4900] = 1

	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
	for i := 0; i < 10; i++ {
		a.AddShifted(s, 0, 1)
	}
	if h := a.Entropy(); h != 0 {
		t.Errorf("entropy of a single stacked spike = %v, want 0", h)
	}

	a.AddShifted(s, 40, 1)
	if h := a.Entropy(); h <= 0 {
		t.Errorf("entropy with a second occupied bin = %v, want > 0", h)
	}
}
