// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"
	"time"

	"spectra/internal/analysis"
	"spectra/internal/config"
	applog "spectra/internal/log"
)

// Analyzer ties the pipeline together: it resolves a capture device at
// construction, runs one capture goroutine between Start and Stop, and
// exposes the smoothed analysis state. No internal failure crosses its
// surface; in degraded mode the accessors return zeros forever.
type Analyzer struct {
	cfg       *config.Config
	provider  Provider
	device    *Device // nil in degraded mode
	processor *analysis.Processor
	state     *analysis.State

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}

	overflowWarn *applog.Limiter
	frameOnce    sync.Once
	updateOnce   sync.Once
}

// NewAnalyzer resolves the capture device through the provider and
// builds the processing pipeline. A non-negative DeviceID skips the
// loopback heuristics and selects that device directly. Resolution
// failure is degraded mode, not an error; only an invalid
// configuration fails construction.
func NewAnalyzer(cfg *config.Config, provider Provider) (*Analyzer, error) {
	var device *Device
	var err error
	if cfg.DeviceID >= 0 {
		device, err = FindByID(provider, cfg.DeviceID)
	} else {
		device, err = Resolve(provider)
	}
	if err != nil {
		applog.Errorf("Device resolution failed: %v", err)
		device = nil
	}

	rate := ResolveSampleRate(device, cfg.SampleRate)
	processor, err := analysis.NewProcessor(cfg.BufferSize, rate)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		cfg:          cfg,
		provider:     provider,
		device:       device,
		processor:    processor,
		state:        analysis.NewState(cfg.BandSmoothing, cfg.SpectrumSmoothing),
		overflowWarn: applog.NewLimiter(time.Second),
	}, nil
}

// Device returns the resolved capture device, or nil in degraded mode.
func (a *Analyzer) Device() *Device {
	return a.device
}

// SampleRate returns the sample rate the pipeline runs at.
func (a *Analyzer) SampleRate() float64 {
	return a.processor.SampleRate()
}

// State returns the shared analysis state for pollers such as the
// transport publishers.
func (a *Analyzer) State() *analysis.State {
	return a.state
}

// Levels returns the current smoothed band levels, each in [0, 2].
func (a *Analyzer) Levels() (bass, mid, treble float64) {
	return a.state.Levels()
}

// Spectrum returns a copy of the current smoothed 64-bin spectrum,
// values in [0, 1.5].
func (a *Analyzer) Spectrum() []float64 {
	return a.state.Spectrum()
}

// Start spawns the capture goroutine. Without a resolved device it
// logs one warning and stays in degraded mode; calling Start while
// already running is a no-op.
func (a *Analyzer) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.device == nil {
		applog.Warnf("No loopback device found; analyzer running in degraded mode")
		return
	}
	if a.stopCh != nil {
		return
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.captureLoop(a.stopCh, a.doneCh)
}

// Stop signals the capture goroutine and waits up to the configured
// timeout for it to exit. The join is best-effort: a read stuck in the
// driver never hangs the host application. Idempotent.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh = nil
	a.doneCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)

	select {
	case <-doneCh:
	case <-time.After(a.cfg.StopTimeout):
		applog.Warnf("Capture goroutine did not exit within %s; abandoning join", a.cfg.StopTimeout)
	}
}

// captureLoop owns the open stream for its lifetime. Each iteration:
// blocking read, stop check, downmix, process, publish. Transient
// overflows skip the frame; any other failure logs once and ends the
// loop, leaving the state at its last value.
func (a *Analyzer) captureLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	channels := a.device.Channels
	if channels < 1 {
		channels = 1
	}

	stream, err := a.provider.Open(*a.device, channels, a.processor.SampleRate(), a.cfg.BufferSize)
	if err != nil {
		applog.Errorf("Failed to open capture stream: %v", err)
		return
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		applog.Errorf("Failed to start capture stream: %v", err)
		return
	}
	defer stream.Stop()

	interleaved := make([]float32, a.cfg.BufferSize*channels)
	mono := make([]float64, a.cfg.BufferSize)

	for {
		readErr := stream.Read(interleaved)

		// Cooperative cancellation, checked once per iteration after
		// the read. Stop latency is bounded by one read duration.
		select {
		case <-stop:
			return
		default:
		}

		if readErr != nil {
			if errors.Is(readErr, ErrOverflow) {
				a.overflowWarn.Warnf("Capture overflow; frame skipped")
				continue
			}
			applog.Errorf("Capture read failed: %v", readErr)
			return
		}

		downmix(interleaved, mono, channels)

		bands, spectrum, err := a.processor.Process(mono)
		if err != nil {
			a.frameOnce.Do(func() {
				applog.Errorf("Dropping malformed frame: %v", err)
			})
			continue
		}
		if err := a.state.Update(bands, spectrum); err != nil {
			a.updateOnce.Do(func() {
				applog.Errorf("Dropping analysis result: %v", err)
			})
		}
	}
}

// downmix averages interleaved channels per sample index into one mono
// frame. Single-channel input converts without averaging.
func downmix(interleaved []float32, mono []float64, channels int) {
	if channels <= 1 {
		for i := range mono {
			mono[i] = float64(interleaved[i])
		}
		return
	}
	for i := range mono {
		sum := 0.0
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[base+c])
		}
		mono[i] = sum / float64(channels)
	}
}
