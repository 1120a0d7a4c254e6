package piano

import (
	"errors"
	"math"
)

// Errors reported by Validate.
var (
	ErrNoKeys        = errors.New("piano: no keys")
	ErrA4OutOfRange  = errors.New("piano: A4 index out of range")
	ErrBinCount      = errors.New("piano: spectrum bin count mismatch")
	ErrEmptySpectrum = errors.New("piano: empty spectrum")
)

// Key is one piano key as captured by the host: its recorded spectrum,
// the measured inharmonicity coefficient B of its strings, the frequency
// it was recorded at (0 when the key was never recorded) and a slot for
// the computed target frequency.
//
// The tuning engine treats the spectrum as mutable (preprocessing
// rewrites it in place) and Inharmonicity as mutable only through
// extrapolation of missing values.
type Key struct {
	Spectrum          Spectrum
	Inharmonicity     float64
	RecordedFrequency float64
	ComputedFrequency float64
}

// Piano is an ordered sequence of keys plus the index of the reference
// key A4. A standard instrument has 88 keys with A4 at index 48, but the
// model carries no such restriction beyond what Validate enforces.
type Piano struct {
	Keys []Key
	A4   int
}

// New returns a piano with n silent keys and the given A4 index.
func New(n, a4 int) *Piano {
	p := &Piano{Keys: make([]Key, n), A4: a4}
	for i := range p.Keys {
		p.Keys[i].Spectrum = NewSpectrum()
	}
	return p
}

// NumKeys returns the number of keys.
func (p *Piano) NumKeys() int {
	return len(p.Keys)
}

// Validate checks the structural invariants: at least one key, A4 inside
// the key range, and every spectrum present with the canonical bin count
// and non-zero mass.
func (p *Piano) Validate() error {
	if len(p.Keys) == 0 {
		return ErrNoKeys
	}
	if p.A4 < 0 || p.A4 >= len(p.Keys) {
		return ErrA4OutOfRange
	}
	for k := range p.Keys {
		if len(p.Keys[k].Spectrum) != NumBins {
			return ErrBinCount
		}
		if p.Keys[k].Spectrum.Mass() <= 0 {
			return ErrEmptySpectrum
		}
	}
	return nil
}

// Copy returns a deep copy of the piano. The tuning engine works on such
// a snapshot so that host-side state stays untouched.
func (p *Piano) Copy() *Piano {
	out := &Piano{Keys: make([]Key, len(p.Keys)), A4: p.A4}
	for k := range p.Keys {
		out.Keys[k] = p.Keys[k]
		out.Keys[k].Spectrum = p.Keys[k].Spectrum.Copy()
	}
	return out
}

// ETFrequency returns the defining frequency of a key offset by the
// given number of cents from equal temperament, with A4 tuned to a4hz.
func (p *Piano) ETFrequency(key int, cents, a4hz float64) float64 {
	return a4hz * math.Exp2(float64(key-p.A4)/12.0+cents/1200.0)
}

// ET440 returns the equal temperament frequency of a key with A4 at
// 440 Hz.
func (p *Piano) ET440(key int) float64 {
	return p.ETFrequency(key, 0, 440)
}

// PitchOf returns the deviation of freq from the key's ET440 frequency,
// rounded to integer cents.
func (p *Piano) PitchOf(key int, freq float64) int {
	return int(math.Round(CentsBetween(p.ET440(key), freq)))
}

// RecordedPitch returns the recorded pitch of a key in integer cents
// against ET440, or zero when the key carries no recording.
func (p *Piano) RecordedPitch(key int) int {
	f := p.Keys[key].RecordedFrequency
	if f <= 0 {
		return 0
	}
	return p.PitchOf(key, f)
}

// UpperCutoff returns the upper accumulator cutoff bin for this piano:
// 13% above the top key's equal temperament frequency, but never inside
// the high guard zone.
func (p *Piano) UpperCutoff() int {
	fmax := p.ET440(len(p.Keys)-1) * 1.13
	hi := FreqToBin(fmax)
	if hi > NumBins-GuardBins {
		hi = NumBins - GuardBins
	}
	return hi
}
