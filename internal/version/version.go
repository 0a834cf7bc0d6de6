package version

import "github.com/fatih/color"

// Build fingerprints for the starcheck CLI, overridable at build time
// via -ldflags.

const (
	semver  = "0.1.0"
	channel = "dev"
)

var versionColor = color.New(color.FgCyan, color.Bold)

var (
	// Version is the semantic version of the CLI.
	Version = versionColor.Sprint(semver) + "-" + channel

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
