package check

import (
	"fmt"

	"starcheck/internal/contract"
	"starcheck/internal/diag"
)

// Validator checks callable contracts against their bound physical
// signatures. It verifies the invariants the bind layer relies upon at
// runtime without further checks:
//
//   - The bound Go implementation must be exported.
//   - If struct_field is set, there must be zero user-supplied parameters
//     and no injected-parameter requests besides use_semantics.
//   - Physical parameters follow the order
//     fn([positionals]*[other user args](Tuple)(Dict)(Position)(CallExpr)(Thread)(FileOptions))
//     where the trailing values are supplied by the interpreter iff the
//     matching contract flag is set.
//   - The physical parameter count matches the declared user-supplied
//     parameters plus the injected ones.
//   - Each declared parameter uses either type or allowed_types, not both.
//   - Each declared parameter is positional or named (or both).
//   - Positional-only parameters precede any named parameter.
//   - Positional parameters precede any non-positional parameter.
//   - Positional parameters without defaults precede positional parameters
//     with defaults.
//   - Either the doc string is non-empty, or documented is false.
//
// A Validator holds no per-callable state: distinct callables may be
// validated concurrently on one Validator instance as long as each
// goroutine owns its Reporter (or the sink is synchronized).
type Validator struct {
	cfg Config
}

// New constructs a Validator with the given injected-type configuration.
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the validator's injected-type configuration.
func (v *Validator) Config() Config {
	return v.cfg
}

// violation is one rule-family failure. Families stop at their first
// violation; the caller still runs the remaining families.
type violation struct {
	code    diag.Code
	subject diag.Subject
	msg     string
}

// Validate runs all rule families over one callable, reporting every
// violation found. It returns true when the contract is clean.
//
// Each family short-circuits internally on its first violation, but a
// failed family never suppresses the families after it, with one
// exception: the trailing injected-type family only runs when the count
// family found no mismatch. Its cursor arithmetic assumes a consistent
// physical count, so a wrong count surfaces as a count diagnostic alone.
func (v *Validator) Validate(c *contract.Callable, r diag.Reporter) bool {
	ok := true
	emit := func(viol *violation) {
		if viol == nil {
			return
		}
		r.Report(viol.code, diag.SevError, viol.subject, viol.msg, nil)
		ok = false
	}

	emit(v.checkVisibility(c))
	emit(v.checkDocumented(c))
	emit(v.checkStructField(c))
	emit(v.checkParamSemantics(c))

	countViol := v.checkParamCount(c)
	emit(countViol)
	if countViol == nil {
		emit(v.checkInjectedTypes(c))
	}
	return ok
}

// checkVisibility requires the bound Go symbol to be exported. An empty
// binding is the declaration loader's problem (DeclMissingImpl), not ours.
func (v *Validator) checkVisibility(c *contract.Callable) *violation {
	if c.Impl == "" || c.ImplExported() {
		return nil
	}
	return &violation{
		code:    diag.ChkNotExported,
		subject: c.Subject(),
		msg:     fmt.Sprintf("bound implementation '%s' must be an exported Go identifier", c.Impl),
	}
}

func (v *Validator) checkDocumented(c *contract.Callable) *violation {
	if !c.Documented || c.Doc != "" {
		return nil
	}
	return &violation{
		code:    diag.ChkUndocumented,
		subject: c.Subject(),
		msg:     "the 'doc' string must be non-empty if 'documented' is true",
	}
}

// checkStructField enforces that a zero-argument property access requests
// nothing the interpreter would have to thread through a real call.
// use_semantics stays allowed: attribute lookup still sees the dialect
// options.
func (v *Validator) checkStructField(c *contract.Callable) *violation {
	if !c.StructField {
		return nil
	}
	if c.UseLocation || c.UseCallExpr || c.UseThread ||
		c.ExtraPositionals != "" || c.ExtraKeywords != "" {
		return &violation{
			code:    diag.ChkStructFieldExtras,
			subject: c.Subject(),
			msg: "callables with struct_field=true may not also specify use_location, " +
				"use_call_expr, use_thread, extra_positionals, or extra_keywords",
		}
	}
	return nil
}

// paramGates is the fold state threaded through the declared parameter
// list. All gates start open and only ever close.
type paramGates struct {
	positionalAllowed           bool
	positionalOnlyAllowed       bool
	nonDefaultPositionalAllowed bool
}

// checkParamSemantics validates each declared parameter in order, stopping
// the family at the first violation.
func (v *Validator) checkParamSemantics(c *contract.Callable) *violation {
	gates := paramGates{
		positionalAllowed:           true,
		positionalOnlyAllowed:       true,
		nonDefaultPositionalAllowed: true,
	}

	for i := range c.Params {
		p := &c.Params[i]
		subject := c.Subject().WithParam(p.Name)

		if !p.Positional && !p.IsNamed() {
			return &violation{
				code:    diag.ChkParamNotPositionalOrNamed,
				subject: subject,
				msg:     fmt.Sprintf("parameter '%s' must be either positional or named", p.Name),
			}
		}
		if p.Default == "None" && !p.Noneable {
			return &violation{
				code:    diag.ChkNoneDefaultNotNoneable,
				subject: subject,
				msg: fmt.Sprintf("parameter '%s' has 'None' default value but is not noneable "+
					"(if this is intended as a mandatory parameter, leave the default empty)", p.Name),
			}
		}
		if len(p.AllowedTypes) > 0 && p.TypeOrAny() != contract.AnyType {
			return &violation{
				code:    diag.ChkTypeAllowedTypesConflict,
				subject: subject,
				msg: fmt.Sprintf("parameter '%s' has both 'type' and 'allowed_types' specified; "+
					"only one may be specified", p.Name),
			}
		}

		if p.Positional {
			if !gates.positionalAllowed {
				return &violation{
					code:    diag.ChkPositionalAfterNonPositional,
					subject: subject,
					msg: fmt.Sprintf("positional parameter '%s' is specified after one or more "+
						"non-positional parameters", p.Name),
				}
			}
			if !p.IsNamed() && !gates.positionalOnlyAllowed {
				return &violation{
					code:    diag.ChkPositionalOnlyAfterNamed,
					subject: subject,
					msg: fmt.Sprintf("positional-only parameter '%s' is specified after one or more "+
						"named parameters", p.Name),
				}
			}
			if !p.HasDefault() {
				if !gates.nonDefaultPositionalAllowed {
					return &violation{
						code:    diag.ChkNonDefaultAfterDefault,
						subject: subject,
						msg: fmt.Sprintf("positional parameter '%s' has no default value but is "+
							"specified after one or more positional parameters with default values", p.Name),
					}
				}
			} else {
				// No mandatory positional may follow a defaulted one.
				gates.nonDefaultPositionalAllowed = false
			}
		} else {
			// No positional parameter may follow this one.
			gates.positionalAllowed = false
		}
		if p.IsNamed() {
			// No positional-only parameter may follow this one.
			gates.positionalOnlyAllowed = false
		}
	}
	return nil
}

// checkParamCount compares the physical signature length against declared
// plus injected parameters.
func (v *Validator) checkParamCount(c *contract.Callable) *violation {
	injected := c.NumInjected()

	if len(c.Params) > 0 || c.MandatoryPositionals >= 0 {
		declared := len(c.Params) + max(0, c.MandatoryPositionals)
		if len(c.Formals) != declared+injected {
			return &violation{
				code:    diag.ChkParamCountMismatch,
				subject: c.Subject(),
				msg: fmt.Sprintf("bound function has %d parameters, but the contract declared "+
					"%d user-supplied parameters and %d injected parameters",
					len(c.Formals), declared, injected),
			}
		}
	}
	if c.StructField && len(c.Formals) != injected {
		return &violation{
			code:    diag.ChkStructFieldParamCount,
			subject: c.Subject(),
			msg: fmt.Sprintf("callables with struct_field=true must have 0 user-supplied "+
				"parameters; expected %d injected parameters, but found %d total parameters",
				injected, len(c.Formals)),
		}
	}
	return nil
}

// checkInjectedTypes walks the trailing physical parameters against the
// requested injected slots in canonical order. It only runs after the
// count family passed; the cursor stays bounds-guarded anyway because the
// count goes unchecked for contracts that declare no parameters.
func (v *Validator) checkInjectedTypes(c *contract.Callable) *violation {
	slots := c.InjectedSlots()
	idx := len(c.Formals) - len(slots)

	for _, slot := range slots {
		if idx < 0 || idx >= len(c.Formals) {
			return nil
		}
		want := v.cfg.TypeFor(slot)
		got := c.Formals[idx].Type
		if got != want {
			subject := c.Subject().WithParam(c.Formals[idx].Name)
			return &violation{
				code:    diag.ChkInjectedTypeMismatch,
				subject: subject,
				msg: fmt.Sprintf("expected parameter index %d to be the %s type, matching %s, "+
					"but was %s", idx, want, slot, got),
			}
		}
		idx++
	}
	return nil
}
