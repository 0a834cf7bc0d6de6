package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"starcheck/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the starcheck disk cache",
	Long:  "Remove all cached per-file validation results from the disk cache.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("starcheck")
	if err != nil {
		return fmt.Errorf("failed to open disk cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop disk cache: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "disk cache cleared")
	return nil
}
