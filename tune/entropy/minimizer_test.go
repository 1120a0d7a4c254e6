package entropy

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-tune/internal/testutil"
	"github.com/cwbudde/algo-tune/piano"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// recordingReporter captures the event stream. The minimizer runs
// synchronously in these tests, so no locking is needed; onUpdate can
// poke the minimizer mid-run.
type recordingReporter struct {
	phases   []Phase
	updates  []KeyUpdate
	onUpdate func(KeyUpdate)
}

func (r *recordingReporter) PhaseChanged(p Phase) { r.phases = append(r.phases, p) }
func (r *recordingReporter) Progress(float64)     {}
func (r *recordingReporter) KeyUpdated(k int, f float64) {
	u := KeyUpdate{Key: k, FrequencyHz: f}
	r.updates = append(r.updates, u)
	if r.onUpdate != nil {
		r.onUpdate(u)
	}
}

func (r *recordingReporter) inReduction() bool {
	for _, p := range r.phases {
		if p == PhaseEntropyReductionStarted {
			return true
		}
	}
	return false
}

func TestFlatPianoStaysPut(t *testing.T) {
	// Identical stacked spikes are already optimal; every proposal
	// must be rejected and the pitch vector stays at zero.
	p := testutil.StackedPiano(27, 13, 0)
	rep := &recordingReporter{}
	m := New(p, WithSeed(1), WithPreprocessed(), WithSeedPause(0),
		WithReporter(rep), WithMaxProposals(300))

	require.NoError(t, m.Run(context.Background()))

	for k, v := range m.Pitches() {
		require.Zerof(t, v, "key %d drifted", k)
	}
	require.InDelta(t, 0, m.Entropy(), 1e-12, "stacked spike entropy")
	require.Equal(t, PhaseFinished, rep.phases[len(rep.phases)-1])
}

func TestDetunedKeyConverges(t *testing.T) {
	// One key recorded 30 cents sharp; the search must pull its pitch
	// to −30 where its bump restacks onto the others. Block moves
	// cannot improve this configuration, so the mix is pinned to
	// single-key moves.
	p := testutil.StackedPiano(27, 13, 6)
	testutil.ShiftKey(p, 10, 30)

	m := New(p, WithSeed(7), WithPreprocessed(), WithSeedPause(0),
		WithMethodRatio(0), WithMaxProposals(20000))

	require.NoError(t, m.Run(context.Background()))

	pitches := m.Pitches()
	require.Equal(t, -30, pitches[10], "detuned key")
	for k, v := range pitches {
		if k != 10 {
			require.Zerof(t, v, "key %d drifted", k)
		}
	}
}

func TestOverrideMidRun(t *testing.T) {
	// A manual override lands in the inbox, is drained at the next
	// iteration, forces an entropy recomputation and the search
	// continues from the new configuration.
	p := testutil.StackedPiano(27, 13, 6)
	testutil.ShiftKey(p, 10, 30)

	rep := &recordingReporter{}
	var m *Minimizer

	injected := false
	var entropyAtInjection float64
	var overrideSeen bool
	target := 0.0

	accepted := 0
	rep.onUpdate = func(u KeyUpdate) {
		if !rep.inReduction() {
			return
		}
		if !injected {
			accepted++
			if accepted >= 3 {
				injected = true
				entropyAtInjection = m.Entropy()
				m.Override(10, target)
			}
			return
		}
		if u.Key == 10 && math.Abs(u.FrequencyHz-target) < 1e-9 {
			overrideSeen = true
			// The override pinned the key 30 cents sharp, which can
			// only have raised the entropy.
			require.Greater(t, m.Entropy(), entropyAtInjection)
		}
	}

	m = New(p, WithSeed(3), WithPreprocessed(), WithSeedPause(0),
		WithMethodRatio(0), WithMaxProposals(4000), WithReporter(rep))
	target = p.ETFrequency(10, 30, 440)

	require.NoError(t, m.Run(context.Background()))
	require.True(t, injected, "no accepted moves to inject after")
	require.True(t, overrideSeen, "override was never applied")
	require.Equal(t, PhaseFinished, rep.phases[len(rep.phases)-1])
}

func TestCancelledBeforeFirstIteration(t *testing.T) {
	// With termination requested up front the worker still publishes
	// the seed curve, then aborts without a single proposal.
	p := testutil.StackedPiano(27, 13, 0)
	rep := &recordingReporter{}

	updatesInReduction := 0
	rep.onUpdate = func(KeyUpdate) {
		if rep.inReduction() {
			updatesInReduction++
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(p, WithSeed(1), WithPreprocessed(), WithSeedPause(0), WithReporter(rep))
	require.NoError(t, m.Run(ctx))

	require.Equal(t, 0, updatesInReduction)
	n := len(rep.phases)
	require.GreaterOrEqual(t, n, 2)
	require.Equal(t, PhaseEntropyReductionStarted, rep.phases[n-2])
	require.Equal(t, PhaseAborted, rep.phases[n-1])
}

func TestCancellationLatency(t *testing.T) {
	// After cancellation at most one further update may appear.
	p := testutil.StackedPiano(27, 13, 6)
	testutil.ShiftKey(p, 5, 20)

	ctx, cancel := context.WithCancel(context.Background())
	rep := &recordingReporter{}

	cancelled := false
	after := 0
	rep.onUpdate = func(KeyUpdate) {
		if !rep.inReduction() {
			return
		}
		if !cancelled {
			cancelled = true
			cancel()
			return
		}
		after++
	}

	m := New(p, WithSeed(5), WithPreprocessed(), WithSeedPause(0),
		WithMethodRatio(0), WithMaxProposals(10000), WithReporter(rep))
	require.NoError(t, m.Run(ctx))

	require.LessOrEqual(t, after, 1, "updates after cancellation")
	require.Equal(t, PhaseAborted, rep.phases[len(rep.phases)-1])
}

func TestPreprocessingFailureAborts(t *testing.T) {
	p := piano.New(5, 10) // A4 outside the key range
	rep := &recordingReporter{}
	m := New(p, WithSeed(1), WithSeedPause(0), WithReporter(rep))

	err := m.Run(context.Background())
	require.ErrorIs(t, err, piano.ErrA4OutOfRange)
	require.Equal(t, PhaseAborted, rep.phases[len(rep.phases)-1])
	require.Empty(t, rep.updates)
}

func TestBlockMoveAcceptsSectionShift(t *testing.T) {
	// A coherently sharp treble section is exactly what block moves
	// exist for: rigid −1 shifts must be accepted until the section is
	// restacked, decaying the method ratio each time.
	p := testutil.StackedPiano(27, 13, 6)
	for k := 14; k < 27; k++ {
		testutil.ShiftKey(p, k, 3)
	}

	m := New(p, WithSeed(11), WithPreprocessed(), WithSeedPause(0))
	m.initCurve()
	m.initState()
	h0 := m.entropy

	for i := 0; i < 60; i++ {
		m.blockMove(14)
	}

	require.Less(t, m.entropy, h0)
	require.InDelta(t, math.Pow(methodRatioDecay, 3), m.methodRatio, 1e-12)
	for k := 14; k < 27; k++ {
		require.Equalf(t, -3, m.pitch[k], "key %d", k)
	}
	for k := 0; k < 14; k++ {
		require.Zerof(t, m.pitch[k], "key %d", k)
	}
}

func TestMonteCarloInvariants(t *testing.T) {
	// On randomized pianos the incrementally maintained accumulator
	// matches a from-scratch rebuild, entropy never increases, no bin
	// goes negative and A4 never moves.
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(15, 27).Draw(t, "n")
		a4 := n / 2
		sigma := rapid.Float64Range(0, 8).Draw(t, "sigma")
		p := testutil.ChoirPiano(n, a4, sigma)
		for k := 0; k < n; k++ {
			testutil.ShiftKey(p, k, rapid.IntRange(-20, 20).Draw(t, fmt.Sprintf("detune%d", k)))
		}

		m := New(p,
			WithSeed(rapid.Int64().Draw(t, "seed")),
			WithPreprocessed(), WithSeedPause(0), WithMethodRatio(0.3))
		m.initCurve()
		m.initState()

		a4Pitch := m.pitch[a4]
		h := m.entropy
		for i := 0; i < 40; i++ {
			m.iterate(context.Background())
			if m.entropy > h {
				t.Fatalf("entropy rose from %g to %g", h, m.entropy)
			}
			h = m.entropy
		}

		if m.pitch[a4] != a4Pitch {
			t.Fatalf("A4 pitch moved from %d to %d", a4Pitch, m.pitch[a4])
		}
		for _, v := range m.acc.bins {
			if v < -negativeTolerance {
				t.Fatalf("negative accumulator bin: %g", v)
			}
		}

		snapshot := append([]float64(nil), m.acc.bins...)
		m.rebuild()
		for i := range snapshot {
			if math.Abs(snapshot[i]-m.acc.bins[i]) > 1e-9 {
				t.Fatalf("bin %d: incremental %g vs rebuild %g", i, snapshot[i], m.acc.bins[i])
			}
		}
	})
}

func TestProgressSaturation(t *testing.T) {
	m := New(piano.New(2, 1), WithPreprocessed(), WithSeedPause(0))

	last := 0.0
	for i := 0; i < 2000; i++ {
		m.bookkeep()
		if m.progress < last {
			t.Fatalf("progress decreased at accept %d", i)
		}
		last = m.progress
	}
	if last <= 0 || last >= 1 {
		t.Fatalf("progress after 2000 accepts = %v, want in (0, 1)", last)
	}
}

func TestOverrideIntakeFiltering(t *testing.T) {
	p := testutil.StackedPiano(27, 13, 0)
	m := New(p, WithPreprocessed(), WithSeedPause(0))

	m.Override(13, 440) // reference key
	m.Override(-1, 100) // out of range
	m.Override(5, 0)    // no frequency
	require.False(t, m.overrideSet)

	m.Override(5, 220)
	require.True(t, m.overrideSet)
}
