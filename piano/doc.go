// Package piano models a piano as seen by an offline tuning engine: an
// ordered set of keys, each carrying a recorded log-frequency spectrum
// and a measured inharmonicity coefficient, together with the equal
// temperament reference scale.
//
// Spectra live on a fixed logarithmic frequency axis with 1200 bins per
// octave, so one bin equals one cent and a pitch change is a rigid
// translation of the spectrum. The axis is anchored one semitone below
// A0 and spans eight octaves, leaving a 100-cent guard zone below the
// lowest key; A4 at 440 Hz falls exactly on bin 4900.
//
// The package is purely a data model. Spectrum acquisition, audio I/O
// and persistence are host concerns; the tuning algorithm in
// tune/entropy consumes a deep copy of a Piano and mutates only that
// copy.
package piano
