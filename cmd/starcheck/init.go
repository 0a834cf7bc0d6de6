package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"starcheck/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new starcheck project",
	Long: `Initialize a new starcheck project by creating a run manifest (starcheck.toml)
and an example contract declaration (example.star.toml). If [path|name] is
omitted, initializes the current directory. If a non-existing name is provided,
a directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	if err := os.WriteFile(manifestPath, []byte(defaultManifestTOML()), os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	examplePath := filepath.Join(target, "example.star.toml")
	createdExample := false
	if _, err := os.Stat(examplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(examplePath, []byte(exampleDecl()), 0o600); err != nil {
			return fmt.Errorf("failed to write example.star.toml: %w", err)
		}
		createdExample = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "Initialized starcheck project in %s\n", rel)
	fmt.Fprintf(os.Stdout, "  - %s\n", project.ManifestName)
	if createdExample {
		fmt.Fprintf(os.Stdout, "  - example.star.toml\n")
	} else {
		fmt.Fprintf(os.Stdout, "  - example.star.toml (existing)\n")
	}
	return nil
}

func defaultManifestTOML() string {
	return `# Starcheck run manifest
[check]
max_diagnostics = 100
warnings_as_errors = false

# Override the expected Go types of interpreter-injected trailing parameters.
# Absent keys keep their defaults.
#
# [injected]
# extra_positionals = "starlark.Tuple"
# extra_keywords = "*starlark.Dict"
# location = "syntax.Position"
# call_expr = "*syntax.CallExpr"
# thread = "*starlark.Thread"
# semantics = "*syntax.FileOptions"
`
}

func exampleDecl() string {
	return `# Example callable contract declaration.
# Each [[callable]] binds a Go function to a Starlark builtin name and
# declares the call shape the interpreter must enforce.

[[callable]]
name = "glob"
impl = "files.Glob"
doc = "Expands a glob pattern relative to the package directory."

[[callable.param]]
name = "pattern"
named = true
type = "starlark.String"

[[callable.param]]
name = "recursive"
positional = false
named = true
default = "False"
type = "starlark.Bool"

[[callable.formal]]
name = "pattern"
type = "starlark.String"

[[callable.formal]]
name = "recursive"
type = "starlark.Bool"
`
}
