// Package utils holds shared test helpers: synthetic signal generators
// matching the float32 capture format and peak inspection for spectra.
package utils

import "math"

// GenerateSineWave returns size mono samples of a unit-amplitude sine at
// the given frequency.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental plus two harmonics,
// useful for spectra with energy in more than one band.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return buffer
}

// GenerateInterleavedSine returns size frames of an interleaved
// multi-channel sine, the layout a capture stream delivers.
func GenerateInterleavedSine(size, channels int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size*channels)
	for i := 0; i < size; i++ {
		t := float64(i) / sampleRate
		s := float32(math.Sin(2 * math.Pi * frequency * t))
		for c := 0; c < channels; c++ {
			buffer[i*channels+c] = s
		}
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin..endBin], clamping the range to the slice.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
