// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// Publisher periodically snapshots a Source and sends the result
// through a Transport. It runs in its own goroutine between Start and
// Stop, decoupling renderer cadence from capture cadence.
type Publisher struct {
	transport Transport
	source    Source
	interval  time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	// Pre-allocated spectrum buffer reused across ticks.
	spectrum []float64
}

// NewPublisher creates a Publisher sending one snapshot per interval.
// An interval <= 0 defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, transport Transport, source Source) (*Publisher, error) {
	if transport == nil {
		return nil, fmt.Errorf("publisher: transport cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("publisher: source cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		transport: transport,
		source:    source,
		interval:  interval,
		spectrum:  make([]float64, analysis.SpectrumBins),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running
// is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine and waits for it to exit. Safe to call
// repeatedly.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// publish reads one consistent snapshot and hands it to the transport.
func (p *Publisher) publish() {
	bass, mid, treble := p.source.Levels()
	if err := p.source.SpectrumInto(p.spectrum); err != nil {
		applog.Errorf("Publisher: Error reading spectrum: %v", err)
		return
	}

	// The broadcast queue can hold a snapshot past this tick, so it
	// gets its own copy of the spectrum rather than the reused buffer.
	spectrum := make([]float64, len(p.spectrum))
	copy(spectrum, p.spectrum)

	snap := Snapshot{Bass: bass, Mid: mid, Treble: treble, Spectrum: spectrum}
	if err := p.transport.Send(snap); err != nil {
		applog.Debugf("Publisher: Send failed: %v", err)
	}
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Stop()
}
