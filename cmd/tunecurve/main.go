// Command tunecurve computes an entropy-minimized tuning curve for a
// piano definition and writes it as YAML.
//
// Usage:
//
//	tunecurve --piano piano.yaml --out curve.yaml
//	tunecurve --piano piano.yaml --seed 42 --timeout 2m -v
//
// The input format is documented in the pianofile package. The run is
// stochastic; pass --seed for a reproducible curve.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-tune/piano"
	"github.com/cwbudde/algo-tune/pianofile"
	"github.com/cwbudde/algo-tune/tune/entropy"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func noteName(key, a4 int) string {
	midi := 69 + key - a4
	if midi < 0 {
		return fmt.Sprintf("#%d", key)
	}
	return fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
}

func main() {
	pianoPath := pflag.String("piano", "piano.yaml", "piano definition YAML")
	outPath := pflag.String("out", "curve.yaml", "output tuning curve YAML")
	seed := pflag.Int64("seed", 0, "random seed (0 = OS entropy)")
	dumpDir := pflag.String("dump-dir", "", "write diagnostic spectrum dumps into this directory")
	timeout := pflag.Duration("timeout", 0, "abort the calculation after this long (0 = run to convergence)")
	verbose := pflag.BoolP("verbose", "v", false, "log every tuning-curve update")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	p, err := pianofile.Load(*pianoPath)
	if err != nil {
		logger.Fatal("loading piano definition", "err", err)
	}
	logger.Info("piano loaded", "keys", p.NumKeys(), "a4", p.A4)

	rep := entropy.NewChannelReporter(512)
	opts := []entropy.Option{entropy.WithReporter(rep)}
	if *seed != 0 {
		opts = append(opts, entropy.WithSeed(*seed))
	}
	if *dumpDir != "" {
		opts = append(opts, entropy.WithDumpDir(*dumpDir))
	}
	m := entropy.New(p, opts...)
	logger.Debug("minimizer ready", "seed", m.Seed())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
		rep.Close()
	}()

	go func() {
		for ph := range rep.Phases() {
			logger.Info("phase", "phase", ph.String())
		}
	}()
	go func() {
		last := -1.0
		for f := range rep.ProgressFractions() {
			if f-last >= 0.05 {
				last = f
				logger.Info("progress", "fraction", fmt.Sprintf("%.1f%%", 100*f))
			}
		}
	}()
	go func() {
		for u := range rep.Updates() {
			logger.Debug("update", "key", u.Key, "hz", fmt.Sprintf("%.3f", u.FrequencyHz))
		}
	}()

	if err := <-done; err != nil {
		logger.Fatal("calculation failed", "err", err)
	}
	logger.Info("calculation done", "elapsed", time.Since(start).Round(time.Millisecond),
		"entropy", fmt.Sprintf("%.6f", m.Entropy()))

	printCurve(p)

	if err := pianofile.SaveCurve(*outPath, p); err != nil {
		logger.Fatal("writing curve", "err", err)
	}
	logger.Info("curve written", "path", *outPath)
}

func printCurve(p *piano.Piano) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "key\tnote\tET440 Hz\ttuned Hz\toffset ¢\t")
	for k := range p.Keys {
		f := p.Keys[k].ComputedFrequency
		cents := 0.0
		if f > 0 {
			cents = piano.CentsBetween(p.ET440(k), f)
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.3f\t%+.1f\t\n", k, noteName(k, p.A4), p.ET440(k), f, cents)
	}
	w.Flush()
}
