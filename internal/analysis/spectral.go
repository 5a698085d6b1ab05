// SPDX-License-Identifier: MIT
/*
Package analysis implements the spectral pipeline fed by the capture
loop: a Hann-windowed real FFT reduced to three perceptual band levels
and a 64-bin log-spaced spectrum, plus the lock-guarded smoothed state
shared with renderers.

Thread Safety:
- Processor is single-caller (the capture goroutine) and allocation-free
  after construction
- State is the only shared mutable object; one writer, many readers
*/
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"spectra/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// SpectrumBins is the number of log-spaced spectrum bins exposed to
// consumers. Fixed for the process lifetime.
const SpectrumBins = 64

// Fixed scaling constants for the analysis output ranges.
const (
	bandCeiling     = 2.0 // Band levels are clamped to [0, 2]
	spectrumCeiling = 1.5 // Spectrum bins are clamped to [0, 1.5]

	spectrumMinHz = 20.0    // Lowest spectrum edge
	spectrumMaxHz = 16000.0 // Highest spectrum edge

	// Per-bin normalization reference, linear from refFirst at bin 0
	// down to refLast at the final bin. Low bins carry far more raw
	// energy, so they divide by a larger reference.
	refFirst = 40.0
	refLast  = 3.0
)

// ErrFrameLength is returned by Process when the mono frame does not
// match the processor's configured size. The caller drops the frame.
var ErrFrameLength = errors.New("analysis: frame length does not match processor size")

// Bands holds the three perceptual band levels, each in [0, 2].
type Bands struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// frequencyBand defines a half-open frequency range [lowHz, highHz)
// and the divisor that scales its mean magnitude into [0, 2].
type frequencyBand struct {
	name    string
	lowHz   float64
	highHz  float64
	divisor float64
}

var perceptualBands = [3]frequencyBand{
	{name: "bass", lowHz: 20, highHz: 250, divisor: 50},
	{name: "mid", lowHz: 250, highHz: 4000, divisor: 10},
	{name: "treble", lowHz: 4000, highHz: 16000, divisor: 3},
}

// workspace holds pre-allocated buffers so Process never allocates.
type workspace struct {
	input     []float64    // ...for windowed input samples
	fftOutput []complex128 // ...for FFT complex output
	magnitude []float64    // ...for magnitudes of the N/2+1 bins
	window    []float64    // ...for Hann window coefficients
	freqs     []float64    // ...for per-bin center frequencies
	edges     []float64    // ...for the 65 geometric spectrum edges
	ref       []float64    // ...for the per-bin normalization curve
	spectrum  []float64    // ...for the 64 normalized spectrum bins
}

// Processor performs the per-frame spectral transform. It is stateless
// across calls apart from its reusable buffers; temporal smoothing is
// the State's job.
type Processor struct {
	size          int
	sampleRate    float64
	fftCalculator *fourier.FFT
	ws            workspace
}

// NewProcessor creates a Processor for frames of the given size at the
// given sample rate. Size must be a power of 2.
func NewProcessor(size int, sampleRate float64) (*Processor, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("frame size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	// FFT output size for real input is N/2 + 1 complex values.
	magnitudeSize := size/2 + 1

	windowCoeffs := make([]float64, size)
	for i := range windowCoeffs {
		windowCoeffs[i] = 1.0
	}
	window.Hann(windowCoeffs)

	freqs := make([]float64, magnitudeSize)
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(size)
	}

	// 65 geometrically spaced edges between 20 Hz and 16 kHz.
	edges := make([]float64, SpectrumBins+1)
	ratio := spectrumMaxHz / spectrumMinHz
	for i := range edges {
		edges[i] = spectrumMinHz * math.Pow(ratio, float64(i)/float64(SpectrumBins))
	}

	ref := make([]float64, SpectrumBins)
	for i := range ref {
		ref[i] = refFirst + (refLast-refFirst)*float64(i)/float64(SpectrumBins-1)
	}

	return &Processor{
		size:          size,
		sampleRate:    sampleRate,
		fftCalculator: fourier.NewFFT(size),
		ws: workspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    windowCoeffs,
			freqs:     freqs,
			edges:     edges,
			ref:       ref,
			spectrum:  make([]float64, SpectrumBins),
		},
	}, nil
}

// Process transforms one mono frame into raw band levels and the raw
// normalized spectrum. The returned slice aliases an internal buffer
// valid until the next call; State.Update copies it under its lock.
func (p *Processor) Process(mono []float64) (Bands, []float64, error) {
	if len(mono) != p.size {
		return Bands{}, nil, ErrFrameLength
	}

	for i := 0; i < p.size; i++ {
		p.ws.input[i] = mono[i] * p.ws.window[i]
	}

	p.fftCalculator.Coefficients(p.ws.fftOutput, p.ws.input)
	for i, c := range p.ws.fftOutput {
		p.ws.magnitude[i] = cmplx.Abs(c)
	}

	bands := p.bandLevels()
	p.spectrumLevels()
	return bands, p.ws.spectrum, nil
}

// bandLevels averages magnitudes over each half-open band range, scales
// by the band divisor, and clamps to the ceiling. An empty range yields
// zero.
func (p *Processor) bandLevels() Bands {
	var out [len(perceptualBands)]float64
	for b, band := range perceptualBands {
		sum := 0.0
		count := 0
		for k, mag := range p.ws.magnitude {
			freq := p.ws.freqs[k]
			if freq >= band.lowHz && freq < band.highHz {
				sum += mag
				count++
			}
		}
		if count > 0 {
			out[b] = math.Min(sum/float64(count)/band.divisor, bandCeiling)
		}
	}
	return Bands{Bass: out[0], Mid: out[1], Treble: out[2]}
}

// spectrumLevels averages magnitudes into the 64 log-spaced bins using
// the same half-open [edge, nextEdge) policy, then divides each bin by
// its reference value and clamps. Empty bins stay zero.
func (p *Processor) spectrumLevels() {
	for i := 0; i < SpectrumBins; i++ {
		lo, hi := p.ws.edges[i], p.ws.edges[i+1]
		sum := 0.0
		count := 0
		for k, mag := range p.ws.magnitude {
			freq := p.ws.freqs[k]
			if freq >= lo && freq < hi {
				sum += mag
				count++
			}
		}
		if count > 0 {
			p.ws.spectrum[i] = math.Min(sum/float64(count)/p.ws.ref[i], spectrumCeiling)
		} else {
			p.ws.spectrum[i] = 0
		}
	}
}

// Size returns the configured frame size.
func (p *Processor) Size() int {
	return p.size
}

// SampleRate returns the configured sample rate (Hz).
func (p *Processor) SampleRate() float64 {
	return p.sampleRate
}

// BinFrequency returns the center frequency (Hz) for an FFT bin index,
// or 0 for an out-of-range index.
func (p *Processor) BinFrequency(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.ws.freqs) {
		return 0
	}
	return p.ws.freqs[binIndex]
}

// BinEdges returns a copy of the 65 spectrum bin edges, mainly useful
// for consumers labeling spectrum bars.
func (p *Processor) BinEdges() []float64 {
	edges := make([]float64, len(p.ws.edges))
	copy(edges, p.ws.edges)
	return edges
}
