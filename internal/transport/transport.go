// SPDX-License-Identifier: MIT
/*
Package transport publishes analysis snapshots to out-of-process
renderers. Publishers poll the shared analysis state at a fixed cadence
and push over WebSocket (JSON) or UDP (packed binary); the analyzer
itself never blocks on a consumer.
*/
package transport

// Source provides the analysis snapshot consumed by publishers. The
// analysis state satisfies it.
type Source interface {
	Levels() (bass, mid, treble float64)
	SpectrumInto(dst []float64) error
}

// Snapshot is the payload pushed to renderer clients: the three band
// levels in [0, 2] and the 64 spectrum bins in [0, 1.5].
type Snapshot struct {
	Bass     float64   `json:"bass"`
	Mid      float64   `json:"mid"`
	Treble   float64   `json:"treble"`
	Spectrum []float64 `json:"spectrum"`
}

// Transport defines a generic interface for sending snapshots.
// Implementations must be thread-safe and must not block the caller
// indefinitely.
type Transport interface {
	Send(data any) error
	Close() error
}
