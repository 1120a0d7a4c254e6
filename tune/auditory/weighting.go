package auditory

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/weighting"
	"github.com/cwbudde/algo-tune/piano"
	"github.com/meko-christian/algo-approx"
)

// refSampleRate is the sample rate at which the A-weighting prototype
// is discretized. Bilinear warping is negligible below 7 kHz at 96 kHz,
// which comfortably covers the piano compass.
const refSampleRate = 96000

// aWeightTable precomputes the linear SPL-A factor for every bin
// frequency from the IEC 61672 A-curve.
func aWeightTable() []float64 {
	chain := weighting.New(weighting.TypeA, refSampleRate)

	const dbToLn = math.Ln10 / 20
	table := make([]float64, piano.NumBins)
	for m := range table {
		db := chain.MagnitudeDB(piano.BinToFreq(m), refSampleRate)
		table[m] = approx.FastExp(db * dbToLn)
	}
	return table
}
