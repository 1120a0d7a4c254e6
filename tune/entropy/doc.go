// Package entropy implements the entropy-minimizing tuning algorithm:
// a zero-temperature Monte Carlo search for the per-key cent offsets
// that minimize the Shannon entropy of the superposition of all
// preprocessed key spectra.
//
// The central object is an accumulator holding the sum of all spectra,
// each shifted by its key's current pitch. Moving one key is two O(bins)
// accumulator updates; the entropy of the normalized accumulator is the
// objective. Proposals are either single-key steps drawn from a
// binomial distribution or rigid shifts of a whole bass or treble
// block, and only strictly improving proposals are accepted, so the
// host observes a monotone sequence of curves with non-increasing
// entropy.
//
// A Minimizer runs as a single worker goroutine. The host cancels it
// through the context, overrides individual keys through Override, and
// receives phase, progress and tuning-curve events through a Reporter;
// the bundled ChannelReporter never blocks the worker.
package entropy
