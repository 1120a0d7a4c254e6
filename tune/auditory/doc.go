// Package auditory prepares recorded key spectra for entropy
// minimization. The pipeline mimics what the ear does to a piano sound
// before pitch comparison happens: it equalizes loudness, strips noise
// and rumble, discounts inaudible bands and blurs spectral lines to a
// perceptually meaningful width.
//
// Seven stages run in fixed order over a piano snapshot, mutating the
// key spectra in place:
//
//  1. consistency check of the snapshot
//  2. per-key mass normalization
//  3. per-key noise floor subtraction
//  4. per-key low-frequency cut below the key's fundamental
//  5. SPL-A loudness weighting (IEC 61672 A-curve per bin)
//  6. extrapolation of missing inharmonicity coefficients
//  7. high-frequency peak sharpening followed by Gaussian mollification
//
// The pipeline is a one-shot phase on a discarded snapshot, which is
// why in-place mutation is acceptable. Cancellation is polled between
// keys and stages.
package auditory
