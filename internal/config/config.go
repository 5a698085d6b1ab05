package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the analyzer pipeline.
const (
	// Default values for the capture and analysis configuration
	DefaultDeviceID          = -1    // -1 = resolve the loopback device automatically
	DefaultSampleRate        = 0     // 0 = take the resolved device's rate
	FallbackSampleRate       = 44100 // Last resort when no device resolves
	DefaultBufferSize        = 2048  // Frames per blocking read (power of 2)
	DefaultBandSmoothing     = 0.7   // EMA factor for band levels
	DefaultSpectrumSmoothing = 0.6   // EMA factor for spectrum bins
	DefaultStopTimeout       = 2 * time.Second
	DefaultVerbosity         = false
	DefaultCommand           = ""

	// Transport defaults
	DefaultWebSocketPort   = ""                    // Empty disables the WebSocket broadcaster
	DefaultUDPTarget       = ""                    // Empty disables the UDP publisher
	DefaultPublishInterval = 16 * time.Millisecond // ~60Hz, matches a render loop

	// Hardware and processing limits
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxBufferSize = 8192   // Maximum frames per read (power of 2)
)

// Config holds all runtime configuration options for the analyzer.
// It is constructed from defaults, optionally a YAML file, environment
// overrides, and finally command line flags.
type Config struct {
	// Capture Settings
	DeviceID   int     `yaml:"device_id"`   // Capture device override (-1 = auto resolve)
	SampleRate float64 `yaml:"sample_rate"` // Sample rate override in Hz (0 = device default)
	BufferSize int     `yaml:"buffer_size"` // Frames per blocking read

	// Smoothing Settings
	BandSmoothing     float64 `yaml:"band_smoothing"`     // EMA factor for bass/mid/treble
	SpectrumSmoothing float64 `yaml:"spectrum_smoothing"` // EMA factor for the 64 spectrum bins

	// Lifecycle Settings
	StopTimeout time.Duration `yaml:"stop_timeout"` // Bounded join on Stop()

	// Transport Settings
	WebSocketPort   string        `yaml:"websocket_port"`   // Port for the WebSocket broadcaster ("" = off)
	UDPTarget       string        `yaml:"udp_target"`       // host:port for the UDP publisher ("" = off)
	PublishInterval time.Duration `yaml:"publish_interval"` // Snapshot cadence for both publishers

	// Debug Options
	LogLevel    string `yaml:"log_level"`      // debug, info, warn, error
	Verbose     bool   `yaml:"-"`              // Flag shorthand for log_level=debug
	Command     string `yaml:"-"`              // One-off command to execute (e.g. "list")
	Interactive bool   `yaml:"-"`              // Interactive device browser for the list command
}

// NewConfig creates a Config with default values, the base onto which
// file, environment, and flag settings are applied.
func NewConfig() *Config {
	return &Config{
		DeviceID:          DefaultDeviceID,
		SampleRate:        DefaultSampleRate,
		BufferSize:        DefaultBufferSize,
		BandSmoothing:     DefaultBandSmoothing,
		SpectrumSmoothing: DefaultSpectrumSmoothing,
		StopTimeout:       DefaultStopTimeout,
		WebSocketPort:     DefaultWebSocketPort,
		UDPTarget:         DefaultUDPTarget,
		PublishInterval:   DefaultPublishInterval,
		LogLevel:          "info",
		Verbose:           DefaultVerbosity,
		Command:           DefaultCommand,
	}
}
