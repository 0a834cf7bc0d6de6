package project

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"starcheck/internal/check"
)

// Manifest is the parsed starcheck.toml run configuration.
//
//	[check]
//	max_diagnostics = 100
//	warnings_as_errors = false
//
//	[injected]
//	thread = "*starlark.Thread"
//	location = "syntax.Position"
type Manifest struct {
	Check    CheckSection
	Injected check.Config
}

// CheckSection holds pass-wide knobs.
type CheckSection struct {
	MaxDiagnostics   int
	WarningsAsErrors bool
}

type manifestFile struct {
	Check struct {
		MaxDiagnostics   *int `toml:"max_diagnostics"`
		WarningsAsErrors bool `toml:"warnings_as_errors"`
	} `toml:"check"`
	Injected struct {
		ExtraPositionals string `toml:"extra_positionals"`
		ExtraKeywords    string `toml:"extra_keywords"`
		Location         string `toml:"location"`
		CallExpr         string `toml:"call_expr"`
		Thread           string `toml:"thread"`
		Semantics        string `toml:"semantics"`
	} `toml:"injected"`
}

// DefaultManifest returns the configuration used when no starcheck.toml is
// found.
func DefaultManifest() Manifest {
	return Manifest{
		Check:    CheckSection{MaxDiagnostics: 100},
		Injected: check.DefaultConfig(),
	}
}

// LoadManifest parses a starcheck.toml file. Absent keys keep their
// defaults, so a manifest may override a single injected type and nothing
// else.
func LoadManifest(path string) (Manifest, error) {
	var file manifestFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	m := DefaultManifest()
	if file.Check.MaxDiagnostics != nil {
		if *file.Check.MaxDiagnostics <= 0 {
			return Manifest{}, fmt.Errorf("%s: [check].max_diagnostics must be positive", path)
		}
		m.Check.MaxDiagnostics = *file.Check.MaxDiagnostics
	}
	m.Check.WarningsAsErrors = file.Check.WarningsAsErrors

	override := func(dst *string, val string) {
		if strings.TrimSpace(val) != "" {
			*dst = strings.TrimSpace(val)
		}
	}
	override(&m.Injected.ExtraPositionalsType, file.Injected.ExtraPositionals)
	override(&m.Injected.ExtraKeywordsType, file.Injected.ExtraKeywords)
	override(&m.Injected.LocationType, file.Injected.Location)
	override(&m.Injected.CallExprType, file.Injected.CallExpr)
	override(&m.Injected.ThreadType, file.Injected.Thread)
	override(&m.Injected.SemanticsType, file.Injected.Semantics)
	return m, nil
}

// LoadManifestFor walks up from startDir looking for starcheck.toml and
// loads it, falling back to DefaultManifest when none exists.
func LoadManifestFor(startDir string) (Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return Manifest{}, err
	}
	if !ok {
		return DefaultManifest(), nil
	}
	return LoadManifest(path)
}
