package entropy

import (
	"context"
	"testing"

	"github.com/cwbudde/algo-tune/internal/testutil"
	"github.com/cwbudde/algo-tune/piano"
)

func BenchmarkAddShifted(b *testing.B) {
	s := piano.NewSpectrum()
	testutil.Bump(s, 4900, 10)
	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.AddShifted(s, 20, 1)
		a.AddShifted(s, 20, -1)
	}
}

func BenchmarkEntropy(b *testing.B) {
	a := NewAccumulator(piano.GuardBins, piano.NumBins-piano.GuardBins)
	s := piano.NewSpectrum()
	for k := 0; k < 88; k++ {
		testutil.Bump(s, 200+k*100, 8)
		a.AddShifted(s, 0, 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.Entropy()
	}
}

func BenchmarkIterate(b *testing.B) {
	p := testutil.ChoirPiano(88, 48, 8)
	m := New(p, WithSeed(1), WithPreprocessed(), WithSeedPause(0), WithMethodRatio(0))
	m.initCurve()
	m.initState()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.iterate(ctx)
	}
}
