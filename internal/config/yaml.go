// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"spectra/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at path. If path is
// empty, "config.yaml" in the working directory is tried; if no file is
// found, built-in defaults are used. Environment variable overrides are
// applied after loading, and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies SPECTRA_* environment variables on top of
// whatever was loaded from file. Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SPECTRA_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleRate = rate
		}
	}
	if v := os.Getenv("SPECTRA_BUFFER_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.BufferSize = size
		}
	}
	if v := os.Getenv("SPECTRA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SPECTRA_WS_PORT"); v != "" {
		c.WebSocketPort = v
	}
	if v := os.Getenv("SPECTRA_UDP_TARGET"); v != "" {
		c.UDPTarget = v
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with. A zero SampleRate is valid (device default); a non-zero rate
// must fall within the supported range.
func (c *Config) Validate() error {
	if c.SampleRate != 0 && (c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate) {
		return fmt.Errorf("sample_rate %.0f outside supported range [%d, %d]",
			c.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.BufferSize) || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("buffer_size %d must be a power of 2 no greater than %d",
			c.BufferSize, MaxBufferSize)
	}
	if c.BandSmoothing < 0 || c.BandSmoothing >= 1 {
		return fmt.Errorf("band_smoothing %.2f must be in [0, 1)", c.BandSmoothing)
	}
	if c.SpectrumSmoothing < 0 || c.SpectrumSmoothing >= 1 {
		return fmt.Errorf("spectrum_smoothing %.2f must be in [0, 1)", c.SpectrumSmoothing)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("stop_timeout must be positive, got %s", c.StopTimeout)
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish_interval must be positive, got %s", c.PublishInterval)
	}
	return nil
}
