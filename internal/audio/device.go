// SPDX-License-Identifier: MIT
/*
Package audio owns system-audio capture: device enumeration behind a
platform-neutral Provider, resolution of the loopback endpoint matching
the default output, and the capture goroutine feeding the analysis
pipeline.

Thread Safety:
- The Analyzer's capture goroutine is the only writer of analysis state
- Start/Stop are safe to call from any goroutine and are idempotent
*/
package audio

import "errors"

// Sentinel errors for the capture path.
var (
	// ErrOverflow marks a transient input overflow during a read. The
	// capture loop skips the frame and continues.
	ErrOverflow = errors.New("audio: input overflowed")

	// ErrNoDevice marks the degraded mode where no loopback-capable
	// endpoint resolved.
	ErrNoDevice = errors.New("audio: no loopback device resolved")
)

// Device identifies one capture endpoint. Resolved once at startup and
// immutable for the analyzer's lifetime.
type Device struct {
	ID         int     // Provider-scoped device index
	Name       string  // Display name as reported by the driver
	HostAPI    string  // Host API the device belongs to
	Channels   int     // Maximum input channel count
	SampleRate float64 // Default sample rate in Hz
	Loopback   bool    // Captures rendered output rather than a microphone
}

// HostAPI groups the capture endpoints of one host audio API together
// with that API's default output device.
type HostAPI struct {
	Name          string
	DefaultOutput *Device   // nil when the API exposes no output
	Devices       []*Device // input-capable devices on this API
}

// Stream is one open capture stream. Read blocks until a full frame
// buffer is available.
type Stream interface {
	Start() error
	Read(dst []float32) error // fills dst with interleaved frames
	Stop() error
	Close() error
}

// Provider abstracts platform device enumeration and stream opening so
// the resolver and capture loop stay independent of the host audio
// stack. PortAudio is the variant in scope; a WASAPI-loopback or
// CoreAudio-tap provider would slot in behind the same interface.
type Provider interface {
	HostAPIs() ([]HostAPI, error)
	Open(dev Device, channels int, sampleRate float64, frames int) (Stream, error)
}
