// Package pianofile reads and writes piano definitions and tuning
// curves for hosts of the tuning engine. The engine core itself is
// I/O-free; this package exists for tools and tests.
//
// A piano definition is YAML:
//
//	a4: 48
//	keys:
//	  - b: 0.00025
//	    recorded_hz: 27.6
//	    spectrum_dat: spectra/00.dat
//	  - b: 0.00026
//	    partials: 8
//
// Each key takes its spectrum from a two-column .dat file (frequency,
// intensity — the same format the engine's diagnostic dumps use) or,
// when only inharmonicity data is at hand, from a synthesized train of
// partials. A key specifying neither gets the default partial train.
package pianofile

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-tune/internal/dump"
	"github.com/cwbudde/algo-tune/piano"
)

// defaultPartials is the length of the synthesized partial train used
// when a key provides no spectrum source.
const defaultPartials = 8

type pianoDoc struct {
	A4   int      `yaml:"a4"`
	Keys []keyDoc `yaml:"keys"`
}

type keyDoc struct {
	B           float64 `yaml:"b,omitempty"`
	RecordedHz  float64 `yaml:"recorded_hz,omitempty"`
	SpectrumDat string  `yaml:"spectrum_dat,omitempty"`
	Partials    int     `yaml:"partials,omitempty"`
}

// CurveEntry is one key of a saved tuning curve.
type CurveEntry struct {
	Key         int     `yaml:"key"`
	FrequencyHz float64 `yaml:"frequency_hz"`
	Cents       float64 `yaml:"cents"`
}

type curveDoc struct {
	A4   int          `yaml:"a4"`
	Keys []CurveEntry `yaml:"keys"`
}

// Load reads a piano definition. Spectrum .dat paths are resolved
// relative to the definition file.
func Load(path string) (*piano.Piano, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc pianoDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("pianofile: %s: %w", path, err)
	}
	if len(doc.Keys) == 0 {
		return nil, fmt.Errorf("pianofile: %s: %w", path, piano.ErrNoKeys)
	}

	p := piano.New(len(doc.Keys), doc.A4)
	base := filepath.Dir(path)
	for k, key := range doc.Keys {
		p.Keys[k].Inharmonicity = key.B
		p.Keys[k].RecordedFrequency = key.RecordedHz

		switch {
		case key.SpectrumDat != "":
			xs, ys, err := ReadDat(filepath.Join(base, key.SpectrumDat))
			if err != nil {
				return nil, fmt.Errorf("pianofile: key %d: %w", k, err)
			}
			binSpectrum(p.Keys[k].Spectrum, xs, ys)
		case key.Partials > 0:
			synthesizePartials(p, k, key.Partials)
		default:
			synthesizePartials(p, k, defaultPartials)
		}
	}
	return p, nil
}

// SaveCurve writes the computed tuning curve of p as YAML.
func SaveCurve(path string, p *piano.Piano) error {
	doc := curveDoc{A4: p.A4, Keys: make([]CurveEntry, p.NumKeys())}
	for k := range p.Keys {
		f := p.Keys[k].ComputedFrequency
		entry := CurveEntry{Key: k, FrequencyHz: f}
		if f > 0 {
			entry.Cents = piano.CentsBetween(p.ET440(k), f)
		}
		doc.Keys[k] = entry
	}

	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadCurve reads a curve written by SaveCurve.
func LoadCurve(path string) ([]CurveEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc curveDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("pianofile: %s: %w", path, err)
	}
	return doc.Keys, nil
}

// WriteDat writes a two-column (x, y) file.
func WriteDat(path string, xs, ys []float64) error {
	return dump.WriteXY(path, xs, ys)
}

// ReadDat reads a two-column (x, y) file. Blank lines and lines
// starting with '#' are skipped.
func ReadDat(path string) (xs, ys []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var x, y float64
		if _, err := fmt.Sscan(text, &x, &y); err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, sc.Err()
}

// binSpectrum folds (frequency, intensity) samples onto the log axis.
func binSpectrum(s piano.Spectrum, xs, ys []float64) {
	for i := range xs {
		if xs[i] <= 0 || ys[i] <= 0 {
			continue
		}
		bin := piano.FreqToBin(xs[i])
		if bin >= 0 && bin < len(s) {
			s[bin] += ys[i]
		}
	}
}

// synthesizePartials writes a 1/n-weighted spike train at the key's
// inharmonic partial frequencies, based on the recorded fundamental
// when present and equal temperament otherwise.
func synthesizePartials(p *piano.Piano, k, partials int) {
	f1 := p.Keys[k].RecordedFrequency
	if f1 <= 0 {
		f1 = p.ET440(k)
	}
	b := p.Keys[k].Inharmonicity
	s := p.Keys[k].Spectrum

	for n := 1; n <= partials; n++ {
		fn := float64(n) * f1 * math.Sqrt(1+float64(n*n)*b)
		bin := piano.FreqToBin(fn)
		if bin >= 0 && bin < len(s) {
			s[bin] += 1 / float64(n)
		}
	}
}
