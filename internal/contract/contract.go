package contract

import (
	"unicode"
	"unicode/utf8"

	"starcheck/internal/diag"
)

// AnyType is the sentinel "any object" type reference. A parameter whose
// declared type is absent resolves to AnyType; allowed_types may only be
// combined with it.
const AnyType = "starlark.Value"

// Injected enumerates the framework-supplied trailing parameter slots in
// their fixed canonical order. The interpreter appends these after all
// user-supplied parameters, so the order here is load-bearing: both the
// checker and the bind layer walk it when matching trailing formals.
type Injected uint8

const (
	InjectedExtraPositionals Injected = iota
	InjectedExtraKeywords
	InjectedLocation
	InjectedCallExpr
	InjectedThread
	InjectedSemantics
)

func (i Injected) String() string {
	switch i {
	case InjectedExtraPositionals:
		return "extra_positionals"
	case InjectedExtraKeywords:
		return "extra_keywords"
	case InjectedLocation:
		return "use_location"
	case InjectedCallExpr:
		return "use_call_expr"
	case InjectedThread:
		return "use_thread"
	case InjectedSemantics:
		return "use_semantics"
	}
	return "unknown"
}

// Param is one declared logical parameter of a callable contract.
type Param struct {
	Name         string
	Positional   bool
	Named        bool
	LegacyNamed  bool
	Default      string // empty means mandatory (no default value)
	Noneable     bool
	Type         string // empty resolves to AnyType
	AllowedTypes []string
}

// IsNamed reports whether the parameter may be passed by keyword.
func (p *Param) IsNamed() bool {
	return p.Named || p.LegacyNamed
}

// HasDefault reports whether the parameter declares a default value literal.
func (p *Param) HasDefault() bool {
	return p.Default != ""
}

// TypeOrAny resolves the declared type, falling back to the AnyType sentinel.
func (p *Param) TypeOrAny() string {
	if p.Type == "" {
		return AnyType
	}
	return p.Type
}

// Formal is one physical parameter of the bound Go function, with its
// resolved type name. The formal list is an immutable snapshot taken at
// declaration-load time.
type Formal struct {
	Name string
	Type string
}

// Callable is the declared contract for one function exposed to the
// embedded Starlark layer, together with the physical signature it binds.
type Callable struct {
	Name string // Starlark-visible name
	Impl string // bound Go symbol, e.g. "files.Glob"
	File string // declaration file the callable was loaded from

	Doc         string
	Documented  bool
	StructField bool

	Params []Param

	// MandatoryPositionals counts leading positional parameters declared
	// outside the Params list. Negative means the field is unused.
	MandatoryPositionals int

	// Collector names; empty means the collector is absent.
	ExtraPositionals string
	ExtraKeywords    string

	UseLocation  bool
	UseCallExpr  bool
	UseThread    bool
	UseSemantics bool

	Formals []Formal
}

// ParamNamed returns the declared parameter with the given name, or nil.
func (c *Callable) ParamNamed(name string) *Param {
	for i := range c.Params {
		if c.Params[i].Name == name {
			return &c.Params[i]
		}
	}
	return nil
}

// Subject returns the diagnostic subject for this callable.
func (c *Callable) Subject() diag.Subject {
	return diag.Subject{File: c.File, Callable: c.Name}
}

// InjectedSlots returns the requested injected parameter slots in canonical
// order.
func (c *Callable) InjectedSlots() []Injected {
	var slots []Injected
	if c.ExtraPositionals != "" {
		slots = append(slots, InjectedExtraPositionals)
	}
	if c.ExtraKeywords != "" {
		slots = append(slots, InjectedExtraKeywords)
	}
	if c.UseLocation {
		slots = append(slots, InjectedLocation)
	}
	if c.UseCallExpr {
		slots = append(slots, InjectedCallExpr)
	}
	if c.UseThread {
		slots = append(slots, InjectedThread)
	}
	if c.UseSemantics {
		slots = append(slots, InjectedSemantics)
	}
	return slots
}

// NumInjected counts the requested injected parameter slots.
func (c *Callable) NumInjected() int {
	return len(c.InjectedSlots())
}

// ImplName returns the bare identifier of the bound Go symbol (the segment
// after the last dot).
func (c *Callable) ImplName() string {
	name := c.Impl
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// ImplExported reports whether the bound Go symbol is an exported identifier.
func (c *Callable) ImplExported() bool {
	name := c.ImplName()
	if name == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
