// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
	"spectra/internal/transport"
)

/*
Packet structure (BigEndian):

|<-- 4 -->|<---- 8 ---->|<-- 4 -->|<-- 4 -->|<-- 4 -->|<- 2 ->|<- N*4 ->|
+---------+-------------+---------+---------+---------+-------+---------+
| SeqNum  | Timestamp   | Bass    | Mid     | Treble  | Count | Bins    |
| uint32  | int64 nanos | float32 | float32 | float32 | uint16| float32 |
+---------+-------------+---------+---------+---------+-------+---------+
*/

// Publisher periodically reads the analysis snapshot, packs it into the
// binary format above, and sends it through a Sender. It runs in its
// own goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	source   transport.Source
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sequenceNum uint32

	// Pre-allocated buffers reused across packets.
	spectrum     []float64
	f32Spectrum  []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher. An interval <= 0 defaults to 16ms.
func NewPublisher(interval time.Duration, sender *Sender, source transport.Source) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("udp publisher: source cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDP Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		spectrum:     make([]float64, analysis.SpectrumBins),
		f32Spectrum:  make([]float32, analysis.SpectrumBins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins periodic publishing. Safe to call repeatedly; calls
// while running are no-ops.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP Publisher: Start called but already running")
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
		applog.Infof("UDP Publisher: Started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Safe to call repeatedly.
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

// buildAndSendPacket reads one snapshot, packs it, and sends it.
func (p *Publisher) buildAndSendPacket() {
	bass, mid, treble := p.source.Levels()
	if err := p.source.SpectrumInto(p.spectrum); err != nil {
		applog.Errorf("UDP Publisher: Error reading spectrum: %v", err)
		return
	}
	for i, v := range p.spectrum {
		p.f32Spectrum[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(bass))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(mid))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(treble))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.f32Spectrum)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Spectrum)
	}
	if err != nil {
		applog.Errorf("UDP Publisher: Error packing packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("UDP Publisher: Send failed: %v", err)
		return
	}
	applog.Debugf("UDP Publisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Stop()
}
