package auditory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cwbudde/algo-tune/internal/dump"
	"github.com/cwbudde/algo-tune/internal/mathutil"
	"github.com/cwbudde/algo-tune/piano"
)

// Per-key stage progress offsets. Each of the four per-key stages
// claims a quarter of the preprocessing budget.
const (
	offsetNormalize = 0.0
	offsetClean     = 0.25
	offsetCutLow    = 0.5
	offsetWeight    = 0.75
	perKeySpan      = 0.25
)

// Option configures a preprocessing run.
type Option func(*pipeline)

// WithProgress installs a progress callback receiving fractions in
// [0, 1]. The callback runs on the calling goroutine.
func WithProgress(fn func(fraction float64)) Option {
	return func(pl *pipeline) {
		if fn != nil {
			pl.progress = fn
		}
	}
}

// WithDumpDir enables diagnostic spectrum dumps under dir.
func WithDumpDir(dir string) Option {
	return func(pl *pipeline) {
		pl.dumpDir = dir
	}
}

type pipeline struct {
	p        *piano.Piano
	progress func(float64)
	dumpDir  string
	weights  []float64
}

// Preprocess runs the auditory pipeline over p, mutating its key
// spectra and filling missing inharmonicity coefficients. A validation
// failure aborts the run with the spectra left in whatever state the
// completed stages produced; the snapshot is expected to be discarded
// on error.
func Preprocess(ctx context.Context, p *piano.Piano, opts ...Option) error {
	pl := &pipeline{p: p, progress: func(float64) {}}
	for _, opt := range opts {
		if opt != nil {
			opt(pl)
		}
	}
	return pl.run(ctx)
}

func (pl *pipeline) run(ctx context.Context) error {
	p := pl.p
	if err := p.Validate(); err != nil {
		return err
	}

	if err := pl.perKey(ctx, offsetNormalize, pl.normalize); err != nil {
		return err
	}
	if err := pl.perKey(ctx, offsetClean, pl.clean); err != nil {
		return err
	}
	if err := pl.perKey(ctx, offsetCutLow, pl.cutLow); err != nil {
		return err
	}

	pl.weights = aWeightTable()
	if err := pl.perKey(ctx, offsetWeight, pl.weight); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	extrapolateInharmonicity(p)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := pl.mollifyAll(ctx); err != nil {
		return err
	}

	pl.progress(1)
	pl.dumpAll("processed")
	return nil
}

// perKey runs one stage over every key, polling cancellation and
// reporting progress after each.
func (pl *pipeline) perKey(ctx context.Context, offset float64, stage func(k int) error) error {
	n := pl.p.NumKeys()
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage(k); err != nil {
			return err
		}
		pl.progress(offset + perKeySpan*float64(k+1)/float64(n))
	}
	return nil
}

// normalize rescales the key spectrum to unit mass.
func (pl *pipeline) normalize(k int) error {
	if !mathutil.NormalizeMass(pl.p.Keys[k].Spectrum, 1) {
		return piano.ErrEmptySpectrum
	}
	return nil
}

func (pl *pipeline) dumpAll(label string) {
	if pl.dumpDir == "" {
		return
	}
	xs := make([]float64, piano.NumBins)
	for m := range xs {
		xs[m] = piano.BinToFreq(m)
	}
	for k := range pl.p.Keys {
		path := filepath.Join(pl.dumpDir, "spectrum", fmt.Sprintf("%d-%s.dat", k, label))
		_ = dump.WriteXY(path, xs, pl.p.Keys[k].Spectrum)
	}
}
