// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
)

// State is the smoothed analysis snapshot shared between the capture
// goroutine (sole writer) and any number of readers. Every update
// replaces the whole band/spectrum pair under one lock, so readers
// never observe a mix of two updates. Before the first update all
// values are zero.
type State struct {
	mu       sync.RWMutex
	bands    Bands
	spectrum []float64

	bandAlpha     float64 // EMA weight kept from the previous band values
	spectrumAlpha float64 // EMA weight kept from the previous spectrum
}

// NewState creates a State with zeroed levels and the given smoothing
// factors (0 = no smoothing, values approaching 1 = heavier smoothing).
func NewState(bandAlpha, spectrumAlpha float64) *State {
	return &State{
		spectrum:      make([]float64, SpectrumBins),
		bandAlpha:     bandAlpha,
		spectrumAlpha: spectrumAlpha,
	}
}

// Update folds a raw processor result into the smoothed state:
// state = state*alpha + raw*(1-alpha), per scalar and per bin.
// A raw spectrum of the wrong length is dropped whole; the previous
// state is retained rather than partially updated.
func (s *State) Update(raw Bands, rawSpectrum []float64) error {
	if len(rawSpectrum) != len(s.spectrum) {
		return fmt.Errorf("analysis: spectrum length %d does not match %d bins",
			len(rawSpectrum), len(s.spectrum))
	}

	s.mu.Lock()
	a := s.bandAlpha
	s.bands.Bass = s.bands.Bass*a + raw.Bass*(1-a)
	s.bands.Mid = s.bands.Mid*a + raw.Mid*(1-a)
	s.bands.Treble = s.bands.Treble*a + raw.Treble*(1-a)

	sa := s.spectrumAlpha
	for i, v := range rawSpectrum {
		s.spectrum[i] = s.spectrum[i]*sa + v*(1-sa)
	}
	s.mu.Unlock()

	return nil
}

// Levels returns the current smoothed band levels, each in [0, 2].
func (s *State) Levels() (bass, mid, treble float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bands.Bass, s.bands.Mid, s.bands.Treble
}

// Spectrum returns a copy of the current smoothed spectrum, 64 values
// in [0, 1.5]. The copy keeps callers from racing the writer.
// NOTE: allocates per call; readers on a tight cadence should prefer
// SpectrumInto.
func (s *State) Spectrum() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, len(s.spectrum))
	copy(out, s.spectrum)
	return out
}

// SpectrumInto copies the current smoothed spectrum into dst, which
// must have length SpectrumBins. Allocation-free for pollers.
func (s *State) SpectrumInto(dst []float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(dst) != len(s.spectrum) {
		return fmt.Errorf("destination length %d does not match %d bins",
			len(dst), len(s.spectrum))
	}
	copy(dst, s.spectrum)
	return nil
}
