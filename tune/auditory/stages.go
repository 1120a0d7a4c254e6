package auditory

import (
	"context"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-tune/internal/mathutil"
	"github.com/cwbudde/algo-tune/piano"
)

const (
	// noiseFloorBins is the moving-average width used to estimate the
	// broadband noise floor: wide enough to tunnel under any partial,
	// narrow enough to follow the recording's spectral tilt.
	noiseFloorBins = 401

	// lowCutMarginBins is how far below a key's ET fundamental the
	// spectrum is kept; everything lower is rumble or bleed from
	// neighboring keys.
	lowCutMarginBins = 100

	// Mollifier: a Gaussian of sigma 10 bins (10 cents), truncated at
	// three sigma per side.
	mollifierLen   = 61
	mollifierAlpha = 3.0

	// sharpenedKeysAboveA4 marks where recorded peaks become too broad
	// and noisy to locate partials reliably; spectra of keys more than
	// an octave above A4 are sharpened before mollification.
	sharpenedKeysAboveA4 = 12
)

// clean subtracts a smoothed noise floor from the key spectrum and
// clamps the result at zero.
func (pl *pipeline) clean(k int) error {
	s := pl.p.Keys[k].Spectrum

	box := make([]float64, noiseFloorBins)
	for i := range box {
		box[i] = 1.0 / noiseFloorBins
	}
	floor, err := conv.ConvolveMode(s, box, conv.ModeSame)
	if err != nil {
		return err
	}

	for m := range s {
		s[m] -= floor[m]
		if s[m] < 0 {
			s[m] = 0
		}
	}
	return nil
}

// cutLow zeroes all bins more than lowCutMarginBins below the key's
// equal temperament fundamental.
func (pl *pipeline) cutLow(k int) error {
	cut := piano.FreqToBin(pl.p.ET440(k)) - lowCutMarginBins
	if cut > piano.NumBins {
		cut = piano.NumBins
	}
	s := pl.p.Keys[k].Spectrum
	for m := 0; m < cut; m++ {
		s[m] = 0
	}
	return nil
}

// weight applies the precomputed SPL-A factors.
func (pl *pipeline) weight(k int) error {
	s := pl.p.Keys[k].Spectrum
	for m := range s {
		s[m] *= pl.weights[m]
	}
	return nil
}

// extrapolateInharmonicity fills missing B coefficients from a
// least-squares line through ln B over the measured keys. Inharmonicity
// grows roughly exponentially across the compass, so the fit is linear
// in log space. Measured values are never overwritten.
func extrapolateInharmonicity(p *piano.Piano) {
	var n float64
	var sx, sy, sxx, sxy float64
	for k := range p.Keys {
		b := p.Keys[k].Inharmonicity
		if b <= 0 {
			continue
		}
		x, y := float64(k), math.Log(b)
		n++
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	if n == 0 {
		return
	}

	slope, intercept := 0.0, sy/n
	if det := n*sxx - sx*sx; det != 0 {
		slope = (n*sxy - sx*sy) / det
		intercept = (sy - slope*sx) / n
	}

	for k := range p.Keys {
		if p.Keys[k].Inharmonicity <= 0 {
			p.Keys[k].Inharmonicity = math.Exp(intercept + slope*float64(k))
		}
	}
}

// mollifyAll sharpens the treble spectra and convolves every key with
// the Gaussian mollifier, preserving spectral mass.
func (pl *pipeline) mollifyAll(ctx context.Context) error {
	kernel := window.Generate(window.TypeGauss, mollifierLen, window.WithAlpha(mollifierAlpha))
	mathutil.NormalizeMass(kernel, 1)

	for k := range pl.p.Keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := pl.p.Keys[k].Spectrum

		if k > pl.p.A4+sharpenedKeysAboveA4 {
			for m := range s {
				s[m] = s[m] * s[m] * s[m]
			}
		}

		smoothed, err := conv.ConvolveMode(s, kernel, conv.ModeSame)
		if err != nil {
			return err
		}
		for m := range s {
			if smoothed[m] < 0 {
				smoothed[m] = 0
			}
			s[m] = smoothed[m]
		}
		mathutil.NormalizeMass(s, 1)
	}
	return nil
}
