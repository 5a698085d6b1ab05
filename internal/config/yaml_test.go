// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing-on-purpose"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}

	cfg, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig with defaults failed: %v", err)
	}
	if cfg.BufferSize != DefaultBufferSize {
		t.Errorf("BufferSize = %d, expected %d", cfg.BufferSize, DefaultBufferSize)
	}
	if cfg.BandSmoothing != DefaultBandSmoothing {
		t.Errorf("BandSmoothing = %f, expected %f", cfg.BandSmoothing, DefaultBandSmoothing)
	}
	if cfg.StopTimeout != DefaultStopTimeout {
		t.Errorf("StopTimeout = %s, expected %s", cfg.StopTimeout, DefaultStopTimeout)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	yamlContent := `
sample_rate: 48000
buffer_size: 1024
band_smoothing: 0.8
spectrum_smoothing: 0.5
stop_timeout: 3s
websocket_port: "8080"
log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %f, expected 48000", cfg.SampleRate)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("BufferSize = %d, expected 1024", cfg.BufferSize)
	}
	if cfg.BandSmoothing != 0.8 {
		t.Errorf("BandSmoothing = %f, expected 0.8", cfg.BandSmoothing)
	}
	if cfg.StopTimeout != 3*time.Second {
		t.Errorf("StopTimeout = %s, expected 3s", cfg.StopTimeout)
	}
	if cfg.WebSocketPort != "8080" {
		t.Errorf("WebSocketPort = %q, expected %q", cfg.WebSocketPort, "8080")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPECTRA_SAMPLE_RATE", "96000")
	t.Setenv("SPECTRA_BUFFER_SIZE", "4096")
	t.Setenv("SPECTRA_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.SampleRate != 96000 {
		t.Errorf("SampleRate = %f, expected env override 96000", cfg.SampleRate)
	}
	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, expected env override 4096", cfg.BufferSize)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, expected env override %q", cfg.LogLevel, "warn")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sample rate too low", func(c *Config) { c.SampleRate = 100 }},
		{"sample rate too high", func(c *Config) { c.SampleRate = 500000 }},
		{"buffer not power of two", func(c *Config) { c.BufferSize = 2000 }},
		{"buffer too large", func(c *Config) { c.BufferSize = 16384 }},
		{"band smoothing out of range", func(c *Config) { c.BandSmoothing = 1.0 }},
		{"spectrum smoothing negative", func(c *Config) { c.SpectrumSmoothing = -0.1 }},
		{"zero stop timeout", func(c *Config) { c.StopTimeout = 0 }},
		{"zero publish interval", func(c *Config) { c.PublishInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateAcceptsZeroSampleRate(t *testing.T) {
	cfg := NewConfig()
	cfg.SampleRate = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero sample rate (device default) should validate, got %v", err)
	}
}
