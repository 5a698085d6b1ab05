// SPDX-License-Identifier: MIT
//
// Package build carries application metadata (name, version, commit,
// build time) injected at compile time via -ldflags. Development builds
// without ldflags fall back to defaults instead of failing.
package build

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "spectra",
		Description: "Real-time system audio capture and spectral analysis",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies build information from the ldflags variables into
// the buildFlags struct. Must be called early in program startup; flags
// left unset keep their development defaults.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information. Safe to call
// before Initialize; development defaults are returned in that case.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
