package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"starcheck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "starcheck",
	Short: "Starlark callable contract checker",
	Long:  `Starcheck validates callable contract declarations (*.star.toml) against the Go signatures they bind`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show per file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
