// SPDX-License-Identifier: MIT
package audio

import (
	"strings"

	"spectra/internal/config"
	applog "spectra/internal/log"
)

// Resolve discovers the loopback endpoint matching the system's active
// output. The first host API carrying any loopback-capable device is
// selected; within it, the first loopback device whose display name
// contains the default output's name wins. When no name match exists,
// the first loopback device on any API is used regardless of name.
// A nil device with a nil error means degraded mode: nothing to
// capture, not a failure.
//
// The output-to-loopback pairing by display-name substring is a known
// fragility: drivers that name the loopback endpoint differently from
// the output it mirrors fall through to the any-API fallback.
func Resolve(p Provider) (*Device, error) {
	apis, err := p.HostAPIs()
	if err != nil {
		return nil, err
	}

	var host *HostAPI
	for i := range apis {
		if hasLoopback(&apis[i]) {
			host = &apis[i]
			break
		}
	}
	if host == nil {
		return nil, nil
	}

	if host.DefaultOutput != nil {
		for _, dev := range host.Devices {
			if dev.Loopback && strings.Contains(dev.Name, host.DefaultOutput.Name) {
				applog.Infof("Resolved loopback device %q on %s (channels: %d, rate: %.0f Hz)",
					dev.Name, host.Name, dev.Channels, dev.SampleRate)
				return dev, nil
			}
		}
	}

	// No name match: fall back to the first loopback device anywhere.
	for i := range apis {
		for _, dev := range apis[i].Devices {
			if dev.Loopback {
				applog.Infof("Fallback loopback device %q on %s", dev.Name, apis[i].Name)
				return dev, nil
			}
		}
	}

	return nil, nil
}

// FindByID looks a device up by its provider-scoped ID, bypassing the
// loopback heuristics entirely. Used for the explicit device override.
func FindByID(p Provider, id int) (*Device, error) {
	apis, err := p.HostAPIs()
	if err != nil {
		return nil, err
	}
	for i := range apis {
		for _, dev := range apis[i].Devices {
			if dev.ID == id {
				applog.Infof("Using device override %q on %s", dev.Name, apis[i].Name)
				return dev, nil
			}
		}
	}
	return nil, ErrNoDevice
}

func hasLoopback(api *HostAPI) bool {
	for _, dev := range api.Devices {
		if dev.Loopback {
			return true
		}
	}
	return false
}

// ResolveSampleRate picks the pipeline sample rate: a positive override
// wins, then the resolved device's default, then the fallback constant
// so the analysis constants stay well-defined in degraded mode.
func ResolveSampleRate(dev *Device, override float64) float64 {
	if override > 0 {
		return override
	}
	if dev != nil && dev.SampleRate > 0 {
		return dev.SampleRate
	}
	return config.FallbackSampleRate
}
