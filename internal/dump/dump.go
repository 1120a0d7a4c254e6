// Package dump writes development-only diagnostic files: one (x, y)
// pair per line, x being a frequency in Hz and y an intensity. The
// format carries no stability contract.
package dump

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// WriteXY writes paired x/y columns to path, creating parent
// directories as needed. The slices must have equal length.
func WriteXY(path string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("dump: length mismatch: %d vs %d", len(xs), len(ys))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range xs {
		fmt.Fprintf(w, "%g %g\n", xs[i], ys[i])
	}
	return w.Flush()
}
