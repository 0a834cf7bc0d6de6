package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"starcheck/internal/check"
	"starcheck/internal/diag"
	"starcheck/internal/diagfmt"
	"starcheck/internal/driver"
	"starcheck/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.star.toml|directory>",
	Short: "Validate callable contract declarations",
	Long:  `Validate contract declarations in a *.star.toml file or all declaration files within a directory`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "enable persistent disk cache for file diagnostics")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	enableDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	startDir := path
	if !st.IsDir() {
		startDir = filepath.Dir(path)
	}
	manifest, err := project.LoadManifestFor(startDir)
	if err != nil {
		return err
	}

	maxDiagnostics := manifest.Check.MaxDiagnostics
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	warningsAsErrors = warningsAsErrors || manifest.Check.WarningsAsErrors

	opts := driver.Options{
		Validator:       check.New(manifest.Injected),
		MaxDiagnostics:  maxDiagnostics,
		EnableDiskCache: enableDiskCache,
	}

	var results []driver.FileResult
	if st.IsDir() {
		jobs, jerr := cmd.Flags().GetInt("jobs")
		if jerr != nil {
			return fmt.Errorf("failed to get jobs flag: %w", jerr)
		}
		results, err = driver.CheckDir(cmd.Context(), path, opts, jobs)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
	} else {
		res, ferr := driver.CheckFile(cmd.Context(), path, opts)
		if ferr != nil {
			return fmt.Errorf("check failed: %w", ferr)
		}
		results = []driver.FileResult{*res}
	}

	for i := range results {
		results[i].Bag = applyWarningPolicy(results[i].Bag, noWarnings, warningsAsErrors)
		results[i].Bag.Sort()
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     useColor,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		}
		for idx := range results {
			r := &results[idx]
			if st.IsDir() && !quiet {
				if idx > 0 {
					fmt.Fprintln(os.Stdout)
				}
				fmt.Fprintf(os.Stdout, "== %s ==\n", displayPath(r.Path, fullPath))
			}
			diagfmt.Pretty(os.Stdout, r.Bag, prettyOpts)
		}
	case "short":
		all := make([]diag.Diagnostic, 0, len(results))
		for i := range results {
			all = append(all, results[i].Bag.Items()...)
		}
		output := diag.FormatShortDiagnostics(all, withNotes)
		if output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			PathMode:     pathMode,
			IncludeNotes: withNotes,
		}
		if st.IsDir() {
			output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
			for i := range results {
				r := &results[i]
				output[displayPath(r.Path, fullPath)] = diagfmt.BuildDiagnosticsOutput(r.Bag, jsonOpts)
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(output); err != nil {
				return fmt.Errorf("failed to encode diagnostics output: %w", err)
			}
		} else {
			if err := diagfmt.JSON(os.Stdout, results[0].Bag, jsonOpts); err != nil {
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if driver.HasErrors(results) {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

// applyWarningPolicy filters or promotes warnings per the active flags.
func applyWarningPolicy(bag *diag.Bag, drop, promote bool) *diag.Bag {
	if bag == nil || (!drop && !promote) {
		return bag
	}
	out := diag.NewBag(int(bag.Cap()))
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			if drop {
				continue
			}
			d.Severity = diag.SevError
		}
		out.Add(d)
	}
	return out
}

func displayPath(path string, fullPath bool) string {
	if !fullPath {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
