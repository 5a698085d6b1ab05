package cmd

import (
	"os"

	"spectra/internal/config"
	"spectra/pkg/build"

	"github.com/spf13/cobra"
)

// ParseArgs loads the config file, then layers command line flags on
// top of it. Flag defaults come from the loaded config, so a flag only
// wins when it is actually set.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	options, err := config.LoadConfig(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available capture devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	listCmd.Flags().BoolVarP(&options.Interactive, "interactive", "i", false,
		"Browse devices in an interactive view")
	rootCmd.AddCommand(listCmd)

	// Capture configuration
	rootCmd.PersistentFlags().String("config", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().IntVarP(&options.DeviceID, "device", "d", options.DeviceID,
		"Capture device ID, bypassing loopback resolution. Use 'list' to see IDs.")
	rootCmd.PersistentFlags().Float64VarP(&options.SampleRate, "sample-rate", "s", options.SampleRate,
		"Sample rate in Hertz (0 = use the device default)")
	rootCmd.PersistentFlags().IntVarP(&options.BufferSize, "buffer-size", "b", options.BufferSize,
		"Frames per capture buffer (must be a power of two)")

	// Analysis configuration
	rootCmd.PersistentFlags().Float64Var(&options.BandSmoothing, "band-smoothing", options.BandSmoothing,
		"Smoothing factor for band levels, in [0, 1)")
	rootCmd.PersistentFlags().Float64Var(&options.SpectrumSmoothing, "spectrum-smoothing", options.SpectrumSmoothing,
		"Smoothing factor for the spectrum, in [0, 1)")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&options.WebSocketPort, "ws-port", "w", options.WebSocketPort,
		"WebSocket port for JSON snapshots (empty = disabled)")
	rootCmd.PersistentFlags().StringVarP(&options.UDPTarget, "udp-target", "u", options.UDPTarget,
		"UDP address for binary packets, e.g. 127.0.0.1:9000 (empty = disabled)")
	rootCmd.PersistentFlags().DurationVar(&options.PublishInterval, "publish-interval", options.PublishInterval,
		"Interval between published snapshots")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", options.Verbose,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options.Verbose {
		options.LogLevel = "debug"
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// configPathFromArgs pulls the --config value out of the raw args so
// the file can be loaded before cobra binds flag defaults to it.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}
