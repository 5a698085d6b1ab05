package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"spectra/cmd"
	"spectra/internal/audio"
	"spectra/internal/transport"
	"spectra/internal/transport/udp"
	"spectra/internal/tui"
	"spectra/pkg/build"

	applog "spectra/internal/log"
)

// main is the entry point for the spectral analysis service.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Initialize PortAudio
//   - Parse command line arguments
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Resolve the loopback device and start the capture loop
//   - Start the configured publishers
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop publishers, then the analyzer
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	// One thread for the capture loop, one for publishers and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("Main: PortAudio init failed: %v", err)
	}
	defer audio.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	provider := audio.NewPortAudioProvider()

	if cfg.Command == "list" {
		if err := executeList(provider, cfg.Interactive); err != nil {
			applog.Fatalf("Main: %v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	analyzer, err := audio.NewAnalyzer(cfg, provider)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}
	analyzer.Start()

	var shutdown []shutdownStep

	if cfg.WebSocketPort != "" {
		wst := transport.NewWebSocketTransport(cfg.WebSocketPort)
		pub, err := transport.NewPublisher(cfg.PublishInterval, wst, analyzer.State())
		if err != nil {
			applog.Fatalf("Main: WebSocket publisher: %v", err)
		}
		pub.Start()
		shutdown = append(shutdown,
			shutdownStep{name: "websocket publisher", stop: pub.Stop},
			shutdownStep{name: "websocket transport", stop: wst.Close})
	}

	if cfg.UDPTarget != "" {
		sender, err := udp.NewSender(cfg.UDPTarget)
		if err != nil {
			applog.Fatalf("Main: UDP sender: %v", err)
		}
		pub, err := udp.NewPublisher(cfg.PublishInterval, sender, analyzer.State())
		if err != nil {
			applog.Fatalf("Main: UDP publisher: %v", err)
		}
		pub.Start()
		shutdown = append(shutdown,
			shutdownStep{name: "udp publisher", stop: pub.Stop},
			shutdownStep{name: "udp sender", stop: sender.Close})
	}

	if dev := analyzer.Device(); dev != nil {
		fmt.Printf("Analyzing '%s' at %.0f Hz. Press Ctrl+C to stop.\n",
			dev.Name, analyzer.SampleRate())
	} else {
		fmt.Println("No loopback device found, running idle. Press Ctrl+C to stop.")
	}

	// Block until termination signal is received
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	for _, step := range shutdown {
		if err := step.stop(); err != nil {
			applog.Errorf("Main: Error stopping %s: %v", step.name, err)
		}
	}

	analyzer.Stop()
}

type shutdownStep struct {
	name string
	stop func() error
}

// executeList handles the device listing command, either as a plain
// dump or through the interactive browser.
func executeList(provider audio.Provider, interactive bool) error {
	if interactive {
		return tui.Browse(provider)
	}
	return audio.ListDevices(provider)
}
