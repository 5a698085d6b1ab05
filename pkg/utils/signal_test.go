package utils

import (
	"math"
	"testing"
)

func TestGenerateSineWaveBounds(t *testing.T) {
	buf := GenerateSineWave(2048, 44100, 440)
	if len(buf) != 2048 {
		t.Fatalf("expected 2048 samples, got %d", len(buf))
	}
	for i, s := range buf {
		if math.Abs(s) > 1.0 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestGenerateInterleavedSine(t *testing.T) {
	buf := GenerateInterleavedSine(512, 2, 44100, 1000)
	if len(buf) != 1024 {
		t.Fatalf("expected 1024 interleaved samples, got %d", len(buf))
	}
	// Both channels carry the same signal per frame.
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d channels differ: %f vs %f", i/2, buf[i], buf[i+1])
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	magnitudes := []float64{0.1, 0.5, 3.0, 0.2, 0.9}

	if got := FindPeakBin(magnitudes, 0, 4); got != 2 {
		t.Errorf("FindPeakBin full range = %d, expected 2", got)
	}
	if got := FindPeakBin(magnitudes, 3, 4); got != 4 {
		t.Errorf("FindPeakBin sub range = %d, expected 4", got)
	}
	if got := FindPeakBin(magnitudes, -5, 50); got != 2 {
		t.Errorf("FindPeakBin clamped range = %d, expected 2", got)
	}
	if got := FindPeakBin(nil, 0, 1); got != 0 {
		t.Errorf("FindPeakBin empty = %d, expected 0", got)
	}
}
