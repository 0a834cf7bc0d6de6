package check

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"starcheck/internal/contract"
)

// Config fixes the expected type names for the framework-injected trailing
// parameters. It is configured once for a whole validator, never per
// callable. The defaults are the go.starlark.net types the interpreter
// actually passes.
type Config struct {
	ExtraPositionalsType string
	ExtraKeywordsType    string
	LocationType         string
	CallExprType         string
	ThreadType           string
	SemanticsType        string
}

// DefaultConfig returns the expected injected types for the stock
// go.starlark.net interpreter.
func DefaultConfig() Config {
	return Config{
		ExtraPositionalsType: "starlark.Tuple",
		ExtraKeywordsType:    "*starlark.Dict",
		LocationType:         "syntax.Position",
		CallExprType:         "*syntax.CallExpr",
		ThreadType:           "*starlark.Thread",
		SemanticsType:        "*syntax.FileOptions",
	}
}

// TypeFor maps an injected slot to its expected type name.
func (c Config) TypeFor(slot contract.Injected) string {
	switch slot {
	case contract.InjectedExtraPositionals:
		return c.ExtraPositionalsType
	case contract.InjectedExtraKeywords:
		return c.ExtraKeywordsType
	case contract.InjectedLocation:
		return c.LocationType
	case contract.InjectedCallExpr:
		return c.CallExprType
	case contract.InjectedThread:
		return c.ThreadType
	case contract.InjectedSemantics:
		return c.SemanticsType
	}
	return ""
}

// Digest returns a stable fingerprint of the configuration. Cached
// validation results are keyed by it so a config change invalidates them.
func (c Config) Digest() string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		c.ExtraPositionalsType,
		c.ExtraKeywordsType,
		c.LocationType,
		c.CallExprType,
		c.ThreadType,
		c.SemanticsType,
	}, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
