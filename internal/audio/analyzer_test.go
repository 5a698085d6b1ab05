// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spectra/internal/config"
	"spectra/pkg/utils"
)

type readResult struct {
	samples []float32
	err     error
}

// fakeStream serves scripted reads, then blocks until released. The
// block stands in for a driver read with no data arriving.
type fakeStream struct {
	mu      sync.Mutex
	reads   []readResult
	idx     int
	release chan struct{}

	started atomic.Bool
	stopped atomic.Bool
	closed  atomic.Bool
}

func newFakeStream(reads ...readResult) *fakeStream {
	return &fakeStream{reads: reads, release: make(chan struct{})}
}

func (s *fakeStream) Start() error {
	s.started.Store(true)
	return nil
}

func (s *fakeStream) Read(dst []float32) error {
	s.mu.Lock()
	if s.idx < len(s.reads) {
		r := s.reads[s.idx]
		s.idx++
		s.mu.Unlock()
		copy(dst, r.samples)
		return r.err
	}
	s.mu.Unlock()
	<-s.release
	return errors.New("stream released")
}

func (s *fakeStream) Stop() error {
	s.stopped.Store(true)
	return nil
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeProvider struct {
	apis    []HostAPI
	stream  *fakeStream
	openErr error

	opens atomic.Int32
}

func (f *fakeProvider) HostAPIs() ([]HostAPI, error) {
	return f.apis, nil
}

func (f *fakeProvider) Open(Device, int, float64, int) (Stream, error) {
	f.opens.Add(1)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

func loopbackAPI(stream *fakeStream) *fakeProvider {
	return &fakeProvider{
		apis: []HostAPI{{
			Name:          "WASAPI",
			DefaultOutput: dev(0, "Speakers", false),
			Devices:       []*Device{dev(1, "Speakers [Loopback]", true)},
		}},
		stream: stream,
	}
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.StopTimeout = 250 * time.Millisecond
	return cfg
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestAnalyzerProcessesCapturedFrames(t *testing.T) {
	frame := utils.GenerateInterleavedSine(config.DefaultBufferSize, 2, 48000, 440)
	stream := newFakeStream(
		readResult{samples: frame},
		readResult{samples: frame},
		readResult{samples: frame},
	)
	t.Cleanup(func() { close(stream.release) })

	a, err := NewAnalyzer(testConfig(), loopbackAPI(stream))
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	if a.Device() == nil {
		t.Fatal("expected a resolved device")
	}
	if a.SampleRate() != 48000 {
		t.Errorf("sample rate = %f, expected device default 48000", a.SampleRate())
	}

	a.Start()
	defer a.Stop()

	ok := waitFor(t, 2*time.Second, func() bool {
		_, mid, _ := a.Levels()
		return mid > 0.01
	})
	if !ok {
		_, mid, _ := a.Levels()
		t.Fatalf("mid = %f, expected positive after captured 440 Hz frames", mid)
	}

	bass, mid, treble := a.Levels()
	for name, v := range map[string]float64{"bass": bass, "mid": mid, "treble": treble} {
		if v < 0 || v > 2 {
			t.Errorf("%s = %f, outside [0, 2]", name, v)
		}
	}
	spectrum := a.Spectrum()
	if len(spectrum) != 64 {
		t.Fatalf("spectrum length = %d, expected 64", len(spectrum))
	}
	for i, v := range spectrum {
		if v < 0 || v > 1.5 {
			t.Errorf("spectrum[%d] = %f, outside [0, 1.5]", i, v)
		}
	}
}

func TestAnalyzerSkipsTransientOverflow(t *testing.T) {
	frame := utils.GenerateInterleavedSine(config.DefaultBufferSize, 2, 48000, 440)
	stream := newFakeStream(
		readResult{err: ErrOverflow},
		readResult{samples: frame},
		readResult{samples: frame},
	)
	t.Cleanup(func() { close(stream.release) })

	a, err := NewAnalyzer(testConfig(), loopbackAPI(stream))
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	a.Start()
	defer a.Stop()

	ok := waitFor(t, 2*time.Second, func() bool {
		_, mid, _ := a.Levels()
		return mid > 0.01
	})
	if !ok {
		t.Error("overflow should be skipped, not end the capture loop")
	}
}

func TestAnalyzerExitsOnFatalReadError(t *testing.T) {
	stream := newFakeStream(readResult{err: errors.New("device unplugged")})
	t.Cleanup(func() { close(stream.release) })

	a, err := NewAnalyzer(testConfig(), loopbackAPI(stream))
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	a.Start()

	// The loop must release the stream on its error path.
	if !waitFor(t, 2*time.Second, func() bool { return stream.closed.Load() }) {
		t.Error("stream not closed after fatal read error")
	}

	// State holds its default; nothing was ever captured.
	bass, mid, treble := a.Levels()
	if bass != 0 || mid != 0 || treble != 0 {
		t.Errorf("levels = (%f, %f, %f), expected zeros", bass, mid, treble)
	}

	a.Stop()
}

func TestAnalyzerStreamOpenFailure(t *testing.T) {
	p := loopbackAPI(nil)
	p.openErr = errors.New("exclusive mode conflict")

	a, err := NewAnalyzer(testConfig(), p)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	a.Start()

	if !waitFor(t, 2*time.Second, func() bool { return p.opens.Load() == 1 }) {
		t.Fatal("expected one open attempt")
	}

	bass, mid, treble := a.Levels()
	if bass != 0 || mid != 0 || treble != 0 {
		t.Errorf("levels = (%f, %f, %f), expected zeros after open failure", bass, mid, treble)
	}

	a.Stop()
}

// Scenario: no loopback device anywhere. Start stays degraded, the
// accessors return zeros indefinitely, and Stop is an immediate no-op.
func TestAnalyzerDegradedMode(t *testing.T) {
	p := &fakeProvider{
		apis: []HostAPI{{
			Name:          "ALSA",
			DefaultOutput: dev(0, "Speakers", false),
			Devices:       []*Device{dev(1, "Microphone", false)},
		}},
	}

	a, err := NewAnalyzer(testConfig(), p)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	if a.Device() != nil {
		t.Fatalf("device = %+v, expected nil", a.Device())
	}
	if a.SampleRate() != config.FallbackSampleRate {
		t.Errorf("sample rate = %f, expected fallback %d", a.SampleRate(), config.FallbackSampleRate)
	}

	a.Start()

	if p.opens.Load() != 0 {
		t.Error("degraded mode must not open a stream")
	}
	bass, mid, treble := a.Levels()
	if bass != 0 || mid != 0 || treble != 0 {
		t.Errorf("levels = (%f, %f, %f), expected zeros", bass, mid, treble)
	}
	for i, v := range a.Spectrum() {
		if v != 0 {
			t.Errorf("spectrum[%d] = %f, expected 0", i, v)
		}
	}

	start := time.Now()
	a.Stop()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Stop took %s in degraded mode, expected immediate return", elapsed)
	}
}

// Scenario: Stop during an in-flight blocking read returns within the
// configured timeout instead of waiting for the driver.
func TestAnalyzerStopIsBounded(t *testing.T) {
	stream := newFakeStream() // blocks on the first read
	t.Cleanup(func() { close(stream.release) })

	cfg := testConfig()
	a, err := NewAnalyzer(cfg, loopbackAPI(stream))
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	a.Start()
	if !waitFor(t, 2*time.Second, func() bool { return stream.started.Load() }) {
		t.Fatal("capture stream never started")
	}

	start := time.Now()
	a.Stop()
	elapsed := time.Since(start)

	if elapsed > cfg.StopTimeout+200*time.Millisecond {
		t.Errorf("Stop took %s, expected bounded by %s", elapsed, cfg.StopTimeout)
	}
}

func TestAnalyzerStopIdempotent(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), &fakeProvider{})
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	// Never started; both calls are no-ops.
	a.Stop()
	a.Stop()
}

func TestDownmix(t *testing.T) {
	mono := make([]float64, 3)

	downmix([]float32{1, -1, 0.5, 0.5, 0, 1}, mono, 2)
	expected := []float64{0, 0.5, 0.5}
	for i, v := range expected {
		if mono[i] != v {
			t.Errorf("stereo downmix[%d] = %f, expected %f", i, mono[i], v)
		}
	}

	downmix([]float32{0.25, -0.25, 1}, mono, 1)
	expectedMono := []float64{0.25, -0.25, 1}
	for i, v := range expectedMono {
		if mono[i] != v {
			t.Errorf("mono passthrough[%d] = %f, expected %f", i, mono[i], v)
		}
	}
}
