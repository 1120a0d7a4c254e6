package entropy

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/algo-tune/internal/dump"
	"github.com/cwbudde/algo-tune/internal/mathutil"
	"github.com/cwbudde/algo-tune/piano"
	"github.com/cwbudde/algo-tune/tune/auditory"
	"github.com/cwbudde/algo-tune/tune/curve"
)

// methodRatioDecay shrinks the block-move probability on every
// accepted block move, shifting the search from coarse section shifts
// to fine single-key refinement.
const methodRatioDecay = 0.995

// defaultSeedPause lets an interactive host display the seed curve
// before it starts moving.
const defaultSeedPause = 500 * time.Millisecond

// Minimizer owns one tuning calculation over a piano snapshot. Create
// it with New, run it once with Run on a worker goroutine, and feed it
// overrides from other goroutines through Override. The snapshot
// passed to New is owned and mutated by the minimizer for the duration
// of the run.
type Minimizer struct {
	p   *piano.Piano
	rep Reporter
	rng *rand.Rand

	acc      *Accumulator
	pitch    []int
	initial  []float64
	recorded []int
	tol      []int

	entropy     float64
	methodRatio float64
	accepted    int
	progress    float64

	mu           sync.Mutex
	overrideSet  bool
	overrideKey  int
	overrideFreq float64

	seed             int64
	seedSet          bool
	seedPause        time.Duration
	startMethodRatio float64
	preprocessed     bool
	maxProposals     int
	dumpDir          string
}

// New returns a minimizer for the given snapshot. The snapshot must
// outlive the run and must not be touched by the host while Run is
// active; hosts that need their piano afterwards pass a Copy.
func New(snapshot *piano.Piano, opts ...Option) *Minimizer {
	m := &Minimizer{
		p:                snapshot,
		rep:              nopReporter{},
		seedPause:        defaultSeedPause,
		startMethodRatio: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if !m.seedSet {
		m.seed = osSeed()
	}
	m.rng = rand.New(rand.NewSource(m.seed))
	return m
}

// Seed returns the seed the Monte Carlo walk runs on.
func (m *Minimizer) Seed() int64 { return m.seed }

// Pitches returns a copy of the current pitch vector in cents. Valid
// once Run has published the initial curve; the authoritative read is
// after Run returns.
func (m *Minimizer) Pitches() []int {
	return append([]int(nil), m.pitch...)
}

// InitialCurve returns the seed tuning curve in cents.
func (m *Minimizer) InitialCurve() []float64 {
	return append([]float64(nil), m.initial...)
}

// Entropy returns the entropy of the current accumulator state.
func (m *Minimizer) Entropy() float64 { return m.entropy }

// Override asks the worker to pin one key to the given frequency. The
// request is ignored for the reference key A4, out-of-range keys and
// non-positive frequencies; a later request replaces a pending one.
// Safe to call from any goroutine while Run is active.
func (m *Minimizer) Override(key int, freqHz float64) {
	if key < 0 || key >= m.p.NumKeys() || key == m.p.A4 || freqHz <= 0 {
		return
	}
	m.mu.Lock()
	m.overrideSet = true
	m.overrideKey = key
	m.overrideFreq = freqHz
	m.mu.Unlock()
}

// Run executes the calculation: auditory preprocessing, the initial
// curve, then entropy reduction until convergence, proposal exhaustion
// or cancellation. Cancellation is not an error; Run then emits
// PhaseAborted and returns nil. A precondition failure in
// preprocessing emits PhaseAborted and returns the cause.
func (m *Minimizer) Run(ctx context.Context) error {
	m.rep.PhaseChanged(PhasePreprocessing)
	if !m.preprocessed {
		opts := []auditory.Option{auditory.WithProgress(m.rep.Progress)}
		if m.dumpDir != "" {
			opts = append(opts, auditory.WithDumpDir(m.dumpDir))
		}
		if err := auditory.Preprocess(ctx, m.p, opts...); err != nil {
			m.rep.PhaseChanged(PhaseAborted)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	m.rep.PhaseChanged(PhasePreprocessingDone)

	m.initCurve()
	m.rep.PhaseChanged(PhaseInitialCurveReady)
	m.pause(ctx)

	m.initState()
	m.rep.PhaseChanged(PhaseEntropyReductionStarted)

	proposals := 0
	for m.progress < 1 && m.p.NumKeys() > 1 {
		if ctx.Err() != nil {
			m.rep.PhaseChanged(PhaseAborted)
			return nil
		}
		if m.maxProposals > 0 && proposals >= m.maxProposals {
			break
		}
		proposals++
		if !m.iterate(ctx) {
			m.rep.PhaseChanged(PhaseAborted)
			return nil
		}
	}

	m.dumpAccumulator()
	m.rep.PhaseChanged(PhaseFinished)
	return nil
}

// initCurve estimates the seed curve and publishes it.
func (m *Minimizer) initCurve() {
	n := m.p.NumKeys()
	m.initial = curve.Estimate(m.p)
	m.pitch = make([]int, n)
	m.recorded = make([]int, n)
	m.tol = make([]int, n)
	for k := 0; k < n; k++ {
		m.pitch[k] = mathutil.RoundToInt(m.initial[k])
		m.recorded[k] = m.p.RecordedPitch(k)
		m.tol[k] = curve.Tolerance(k, m.p.A4)
	}
	m.emitAll()
}

// initState builds the accumulator for the seed curve and resets the
// search bookkeeping.
func (m *Minimizer) initState() {
	m.acc = NewAccumulator(piano.GuardBins, m.p.UpperCutoff())
	m.rebuild()
	m.entropy = m.acc.Entropy()
	m.methodRatio = m.startMethodRatio
	m.accepted = 0
	m.progress = 0
}

// rebuild recomputes the accumulator from the current pitch vector.
func (m *Minimizer) rebuild() {
	m.acc.Rebuild(m.p.Keys, m.pitch, m.recorded)
}

// iterate performs one Monte Carlo proposal. It returns false when
// cancellation interrupted the proposal itself.
func (m *Minimizer) iterate(ctx context.Context) bool {
	m.drainOverride()
	k := m.pickKey()
	if m.rng.Float64() < m.methodRatio {
		m.blockMove(k)
		return true
	}
	return m.singleMove(ctx, k)
}

// pickKey draws a key uniformly, excluding the reference key A4.
func (m *Minimizer) pickKey() int {
	for {
		k := m.rng.Intn(m.p.NumKeys())
		if k != m.p.A4 {
			return k
		}
	}
}

// blockMove shifts the whole bass block [0..k] or treble block [k..N)
// by one cent and keeps the shift only when it lowers the entropy.
// The accumulator is recomputed from scratch either way.
func (m *Minimizer) blockMove(k int) {
	saved := append([]int(nil), m.pitch...)

	step := 1
	if m.rng.Intn(2) == 0 {
		step = -1
	}
	if k < m.p.A4 {
		for i := 0; i <= k; i++ {
			m.pitch[i] += step
		}
	} else {
		for i := k; i < m.p.NumKeys(); i++ {
			m.pitch[i] += step
		}
	}

	m.rebuild()
	if h := m.acc.Entropy(); h < m.entropy {
		m.entropy = h
		m.methodRatio *= methodRatioDecay
		m.emitAll()
		m.bookkeep()
		return
	}

	m.pitch = saved
	m.rebuild()
}

// singleMove perturbs one key by a binomially distributed step and
// keeps it only when it lowers the entropy. The step is resampled
// until it is non-trivial and respects the tolerance corridor: a pitch
// inside the corridor may move freely within it but not jump out,
// while a pitch already outside may go anywhere. Returns false when
// cancellation arrived during resampling.
func (m *Minimizer) singleMove(ctx context.Context, k int) bool {
	old := m.pitch[k]
	seedPitch := m.initial[k]
	tol := float64(m.tol[k])

	var next int
	for {
		if ctx.Err() != nil {
			return false
		}
		next = old + m.binomialStep()
		if next == old {
			continue
		}
		inside := math.Abs(float64(old)-seedPitch) < tol
		escapes := math.Abs(float64(next)-seedPitch) > tol
		if inside && escapes {
			continue
		}
		break
	}

	s := m.p.Keys[k].Spectrum
	oldShift := old - m.recorded[k]
	newShift := next - m.recorded[k]
	m.acc.AddShifted(s, oldShift, -1)
	m.acc.AddShifted(s, newShift, 1)
	m.pitch[k] = next

	if h := m.acc.Entropy(); h < m.entropy {
		m.entropy = h
		m.emitKey(k)
		m.bookkeep()
		return true
	}

	m.acc.AddShifted(s, newShift, -1)
	m.acc.AddShifted(s, oldShift, 1)
	m.pitch[k] = old
	return true
}

// binomialStep draws from Binomial(20, ½) − 10: a bell-shaped integer
// step in [−10, +10] centered on zero.
func (m *Minimizer) binomialStep() int {
	step := -10
	for i := 0; i < 20; i++ {
		step += m.rng.Intn(2)
	}
	return step
}

// drainOverride applies a pending manual pitch override: the key's
// contribution moves to the requested pitch and the entropy is
// recomputed, after which the search continues from the new
// configuration.
func (m *Minimizer) drainOverride() {
	m.mu.Lock()
	if !m.overrideSet {
		m.mu.Unlock()
		return
	}
	key, freq := m.overrideKey, m.overrideFreq
	m.overrideSet = false
	m.mu.Unlock()

	next := m.p.PitchOf(key, freq)
	if next == m.pitch[key] {
		return
	}

	s := m.p.Keys[key].Spectrum
	m.acc.AddShifted(s, m.pitch[key]-m.recorded[key], -1)
	m.acc.AddShifted(s, next-m.recorded[key], 1)
	m.pitch[key] = next
	m.entropy = m.acc.Entropy()
	m.emitKey(key)
}

// bookkeep advances the acceptance counters and the saturating
// progress estimate.
func (m *Minimizer) bookkeep() {
	m.accepted++
	m.progress += (1 - m.progress) / (1 + 5000/math.Sqrt(float64(m.accepted)))
	m.rep.Progress(m.progress)
}

func (m *Minimizer) emitKey(k int) {
	f := m.p.ETFrequency(k, float64(m.pitch[k]), 440)
	m.p.Keys[k].ComputedFrequency = f
	m.rep.KeyUpdated(k, f)
}

func (m *Minimizer) emitAll() {
	for k := range m.p.Keys {
		m.emitKey(k)
	}
}

func (m *Minimizer) pause(ctx context.Context) {
	if m.seedPause <= 0 {
		return
	}
	t := time.NewTimer(m.seedPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (m *Minimizer) dumpAccumulator() {
	if m.dumpDir == "" {
		return
	}
	xs := make([]float64, piano.NumBins)
	for i := range xs {
		xs[i] = piano.BinToFreq(i)
	}
	_ = dump.WriteXY(filepath.Join(m.dumpDir, "0-accumulator.dat"), xs, m.acc.bins)
}

// osSeed draws a seed from OS entropy, falling back to the clock when
// the entropy source is unavailable.
func osSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
