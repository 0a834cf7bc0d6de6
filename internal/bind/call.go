package bind

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// call unpacks the raw Starlark call into an Invocation per the contract
// and dispatches to the Go implementation. Shape errors mirror the
// interpreter's own wording for user-defined functions.
func (e *entry) call(r *Registry, thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	c := e.contract
	inv := &Invocation{
		Thread: thread,
		args:   make(map[string]starlark.Value, len(c.Params)),
	}

	// Positional arguments fill the positional prefix; the overflow goes to
	// the extra_positionals collector when the contract declares one.
	if len(args) > len(e.positional) {
		if c.ExtraPositionals == "" {
			return nil, fmt.Errorf("%s: got %d arguments, want at most %d",
				b.Name(), len(args), len(e.positional))
		}
		inv.ExtraPositionals = append(starlark.Tuple(nil), args[len(e.positional):]...)
		args = args[:len(e.positional)]
	}
	for i, arg := range args {
		inv.args[e.positional[i].Name] = arg
	}

	// Keyword arguments bind named parameters; unknown keywords go to the
	// extra_keywords collector when declared.
	for _, kv := range kwargs {
		name := string(kv[0].(starlark.String))
		p := c.ParamNamed(name)
		if p == nil || !p.IsNamed() {
			if c.ExtraKeywords == "" {
				return nil, fmt.Errorf("%s: unexpected keyword argument %q", b.Name(), name)
			}
			if inv.ExtraKeywords == nil {
				inv.ExtraKeywords = starlark.NewDict(len(kwargs))
			}
			if err := inv.ExtraKeywords.SetKey(kv[0], kv[1]); err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			continue
		}
		if _, dup := inv.args[name]; dup {
			return nil, fmt.Errorf("%s: got multiple values for argument %q", b.Name(), name)
		}
		inv.args[name] = kv[1]
	}

	// Fill defaults, then check completeness and noneability.
	for i := range c.Params {
		p := &c.Params[i]
		val, bound := inv.args[p.Name]
		if !bound {
			def, ok := e.defaults[p.Name]
			if !ok {
				return nil, fmt.Errorf("%s: missing argument for %s", b.Name(), p.Name)
			}
			inv.args[p.Name] = def
			val = def
		}
		if !p.Noneable && val == starlark.None {
			return nil, fmt.Errorf("%s: for parameter %q: got NoneType, want %s",
				b.Name(), p.Name, p.TypeOrAny())
		}
	}

	if c.ExtraPositionals != "" && inv.ExtraPositionals == nil {
		inv.ExtraPositionals = starlark.Tuple{}
	}
	if c.ExtraKeywords != "" && inv.ExtraKeywords == nil {
		inv.ExtraKeywords = starlark.NewDict(0)
	}
	if c.UseLocation {
		inv.Pos = callerPos(thread)
	}
	if c.UseSemantics {
		inv.Options = r.options
	}

	return e.impl(inv)
}

// callerPos resolves the position of the frame calling the builtin.
func callerPos(thread *starlark.Thread) syntax.Position {
	if thread.CallStackDepth() > 1 {
		return thread.CallFrame(1).Pos
	}
	return syntax.Position{}
}
