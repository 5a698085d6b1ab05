// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// PortAudioProvider implements Provider on top of PortAudio. Device IDs
// are positions in the PortAudio global device list.
type PortAudioProvider struct{}

// NewPortAudioProvider returns a provider backed by the initialized
// PortAudio subsystem.
func NewPortAudioProvider() *PortAudioProvider {
	return &PortAudioProvider{}
}

// HostAPIs enumerates all host audio APIs with their input-capable
// devices and default outputs.
func (p *PortAudioProvider) HostAPIs() ([]HostAPI, error) {
	apis, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate host APIs: %w", err)
	}
	ids, err := deviceIndex()
	if err != nil {
		return nil, err
	}

	out := make([]HostAPI, 0, len(apis))
	for _, api := range apis {
		host := HostAPI{Name: api.Name}
		if api.DefaultOutputDevice != nil {
			host.DefaultOutput = deviceFromInfo(api.DefaultOutputDevice, api.Name, ids)
		}
		for _, info := range api.Devices {
			if info.MaxInputChannels <= 0 {
				continue
			}
			host.Devices = append(host.Devices, deviceFromInfo(info, api.Name, ids))
		}
		out = append(out, host)
	}
	return out, nil
}

// Open opens a blocking capture stream on the given device. The stream
// owns an interleaved buffer sized frames × channels; each Read fills
// it and copies it out.
func (p *PortAudioProvider) Open(dev Device, channels int, sampleRate float64, frames int) (Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if dev.ID < 0 || dev.ID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", dev.ID)
	}
	info := infos[dev.ID]

	buffer := make([]float32, frames*channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   info,
			Latency:  info.DefaultHighInputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // Capture only
			Device:   nil,
		},
		FramesPerBuffer: frames,
		SampleRate:      sampleRate,
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream on %q: %w", dev.Name, err)
	}
	return &paStream{stream: stream, buffer: buffer}, nil
}

// paStream adapts a blocking PortAudio stream to the Stream interface.
type paStream struct {
	stream *portaudio.Stream
	buffer []float32
}

func (s *paStream) Start() error {
	return s.stream.Start()
}

// Read blocks until PortAudio fills the stream buffer, then copies it
// into dst. An input overflow maps to ErrOverflow so callers can treat
// it as transient.
func (s *paStream) Read(dst []float32) error {
	if err := s.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			return ErrOverflow
		}
		return err
	}
	copy(dst, s.buffer)
	return nil
}

func (s *paStream) Stop() error {
	return s.stream.Stop()
}

func (s *paStream) Close() error {
	return s.stream.Close()
}

// deviceIndex maps PortAudio device info pointers to their position in
// the global device list, the ID space this provider exposes.
func deviceIndex() (map[*portaudio.DeviceInfo]int, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	ids := make(map[*portaudio.DeviceInfo]int, len(infos))
	for i, info := range infos {
		ids[info] = i
	}
	return ids, nil
}

func deviceFromInfo(info *portaudio.DeviceInfo, apiName string, ids map[*portaudio.DeviceInfo]int) *Device {
	id, ok := ids[info]
	if !ok {
		id = -1
	}
	return &Device{
		ID:         id,
		Name:       info.Name,
		HostAPI:    apiName,
		Channels:   info.MaxInputChannels,
		SampleRate: info.DefaultSampleRate,
		Loopback:   isLoopbackName(info.Name),
	}
}

// isLoopbackName reports whether a device name marks a loopback-style
// endpoint: WASAPI loopback endpoints carry a "[Loopback]" suffix,
// PulseAudio monitor sources a "monitor" marker. Substring matching on
// display names is driver-dependent; see Resolve for the consequences.
func isLoopbackName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "loopback") || strings.Contains(lower, "monitor")
}

// ListDevices prints every host API with its devices, marking loopback
// candidates and each API's default output.
func ListDevices(p Provider) error {
	apis, err := p.HostAPIs()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Capture Devices\n\n")

	for _, api := range apis {
		fmt.Printf("%s\n", api.Name)
		if api.DefaultOutput != nil {
			fmt.Printf("    Default output: %s\n", api.DefaultOutput.Name)
		}
		for _, dev := range api.Devices {
			marker := ""
			if dev.Loopback {
				marker = " [loopback]"
			}
			fmt.Printf("    [%d] %s%s\n", dev.ID, dev.Name, marker)
			fmt.Printf("        Channels: %d, Default sample rate: %.0f Hz\n",
				dev.Channels, dev.SampleRate)
		}
		fmt.Println()
	}

	return nil
}
