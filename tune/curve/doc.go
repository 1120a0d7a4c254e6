// Package curve derives the deterministic seed for the entropy
// minimizer: a stretched tuning curve computed from measured
// inharmonicity alone, plus the per-key tolerance corridor that keeps
// the stochastic search anchored to it.
//
// Seeding matters because the entropy landscape of superposed partials
// has deep spurious minima at half-tone shifts of whole keyboard
// sections; starting from an inharmonicity-consistent stretch keeps the
// Monte Carlo walk inside the basin of the musically correct minimum.
package curve
