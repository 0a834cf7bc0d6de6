package contract

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"starcheck/internal/diag"
)

// Declaration file format (*.star.toml):
//
//	[[callable]]
//	name = "glob"
//	impl = "files.Glob"
//	doc = "Expands include patterns relative to the package."
//	extra_positionals = "args"
//	use_thread = true
//
//	  [[callable.param]]
//	  name = "include"
//	  named = true
//	  default = "[]"
//	  type = "*starlark.List"
//
//	  [[callable.formal]]
//	  name = "include"
//	  type = "*starlark.List"

type declFile struct {
	Callables []declCallable `toml:"callable"`
}

type declCallable struct {
	Name                 string       `toml:"name"`
	Impl                 string       `toml:"impl"`
	Doc                  string       `toml:"doc"`
	Documented           *bool        `toml:"documented"`
	StructField          bool         `toml:"struct_field"`
	MandatoryPositionals *int         `toml:"mandatory_positionals"`
	ExtraPositionals     string       `toml:"extra_positionals"`
	ExtraKeywords        string       `toml:"extra_keywords"`
	UseLocation          bool         `toml:"use_location"`
	UseCallExpr          bool         `toml:"use_call_expr"`
	UseThread            bool         `toml:"use_thread"`
	UseSemantics         bool         `toml:"use_semantics"`
	Params               []declParam  `toml:"param"`
	Formals              []declFormal `toml:"formal"`
}

type declParam struct {
	Name         string   `toml:"name"`
	Positional   *bool    `toml:"positional"`
	Named        bool     `toml:"named"`
	LegacyNamed  bool     `toml:"legacy_named"`
	Default      string   `toml:"default"`
	Noneable     bool     `toml:"noneable"`
	Type         string   `toml:"type"`
	AllowedTypes []string `toml:"allowed_types"`
}

type declFormal struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// DecodeFile parses a declaration file into callable contracts.
// Field defaults follow the contract conventions: documented defaults to
// true, positional defaults to true, mandatory_positionals defaults to -1
// (unused).
func DecodeFile(path string) ([]*Callable, error) {
	var file declFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return file.callables(path), nil
}

// Decode parses declaration data for callers that already hold the bytes
// (tests, editors). The path is recorded on the resulting callables for
// diagnostics only.
func Decode(path string, data []byte) ([]*Callable, error) {
	var file declFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return file.callables(path), nil
}

func (f *declFile) callables(path string) []*Callable {
	out := make([]*Callable, 0, len(f.Callables))
	for i := range f.Callables {
		out = append(out, f.Callables[i].toCallable(path))
	}
	return out
}

func (d *declCallable) toCallable(path string) *Callable {
	c := &Callable{
		Name:                 d.Name,
		Impl:                 d.Impl,
		File:                 path,
		Doc:                  d.Doc,
		Documented:           true,
		StructField:          d.StructField,
		MandatoryPositionals: -1,
		ExtraPositionals:     d.ExtraPositionals,
		ExtraKeywords:        d.ExtraKeywords,
		UseLocation:          d.UseLocation,
		UseCallExpr:          d.UseCallExpr,
		UseThread:            d.UseThread,
		UseSemantics:         d.UseSemantics,
	}
	if d.Documented != nil {
		c.Documented = *d.Documented
	}
	if d.MandatoryPositionals != nil {
		c.MandatoryPositionals = *d.MandatoryPositionals
	}
	c.Params = make([]Param, len(d.Params))
	for i := range d.Params {
		p := &d.Params[i]
		c.Params[i] = Param{
			Name:         p.Name,
			Positional:   true,
			Named:        p.Named,
			LegacyNamed:  p.LegacyNamed,
			Default:      p.Default,
			Noneable:     p.Noneable,
			Type:         p.Type,
			AllowedTypes: p.AllowedTypes,
		}
		if p.Positional != nil {
			c.Params[i].Positional = *p.Positional
		}
	}
	c.Formals = make([]Formal, len(d.Formals))
	for i := range d.Formals {
		c.Formals[i] = Formal{Name: d.Formals[i].Name, Type: d.Formals[i].Type}
	}
	return c
}

// VerifyDecls reports structural problems a declaration file can carry
// regardless of contract semantics: missing callable names, missing bound
// implementations, duplicate callable names within one file.
func VerifyDecls(path string, callables []*Callable, r diag.Reporter) {
	seen := make(map[string]struct{}, len(callables))
	for i, c := range callables {
		subject := c.Subject()
		if c.Name == "" {
			subject.Callable = fmt.Sprintf("callable#%d", i+1)
			r.Report(diag.DeclMissingName, diag.SevError, subject,
				"callable declaration has no name", nil)
			continue
		}
		if c.Impl == "" {
			r.Report(diag.DeclMissingImpl, diag.SevError, subject,
				fmt.Sprintf("callable '%s' does not bind a Go implementation", c.Name), nil)
		}
		if _, dup := seen[c.Name]; dup {
			r.Report(diag.DeclDuplicateCallable, diag.SevError, subject,
				fmt.Sprintf("callable '%s' is declared more than once in %s", c.Name, path), nil)
			continue
		}
		seen[c.Name] = struct{}{}
	}
}
