// Package bind turns validated callable contracts into Starlark builtins.
// A Registry refuses contracts that fail validation; builtins produced from
// accepted contracts enforce the declared call shape at call time, so the
// wrapped Go implementation only ever sees arguments matching its contract.
package bind

import (
	"errors"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"starcheck/internal/check"
	"starcheck/internal/contract"
	"starcheck/internal/diag"
)

var (
	// ErrInvalidContract marks a registration rejected by validation.
	ErrInvalidContract = errors.New("contract failed validation")
	// ErrDuplicateName marks a second registration under the same name.
	ErrDuplicateName = errors.New("callable name already registered")
)

// Invocation carries one resolved call to a bound implementation. Declared
// parameters are available by name via Arg; collectors and injected context
// are populated only when the contract requested them.
type Invocation struct {
	Thread  *starlark.Thread
	Pos     syntax.Position
	Options *syntax.FileOptions

	ExtraPositionals starlark.Tuple
	ExtraKeywords    *starlark.Dict

	args map[string]starlark.Value
}

// Arg returns the value bound to the declared parameter name.
func (inv *Invocation) Arg(name string) (starlark.Value, bool) {
	v, ok := inv.args[name]
	return v, ok
}

// ImplFunc is a Go implementation behind a callable contract.
type ImplFunc func(inv *Invocation) (starlark.Value, error)

type entry struct {
	contract *contract.Callable
	impl     ImplFunc

	// Precomputed at registration: the positional prefix of the declared
	// parameters and the evaluated default values.
	positional []*contract.Param
	defaults   map[string]starlark.Value
}

// Registry collects validated contracts with their Go implementations and
// materializes them as Starlark builtins.
type Registry struct {
	validator *check.Validator
	options   *syntax.FileOptions
	entries   map[string]*entry
}

// NewRegistry builds a registry validating against the given configuration.
// opts may be nil when no callable requests use_semantics.
func NewRegistry(v *check.Validator, opts *syntax.FileOptions) *Registry {
	if v == nil {
		v = check.New(check.DefaultConfig())
	}
	return &Registry{
		validator: v,
		options:   opts,
		entries:   make(map[string]*entry),
	}
}

// Register validates the contract and stores the implementation under the
// contract's Starlark name. A contract with any validation error is refused.
func (r *Registry) Register(c *contract.Callable, impl ImplFunc) error {
	if impl == nil {
		return fmt.Errorf("register %s: nil implementation", c.Name)
	}
	if _, exists := r.entries[c.Name]; exists {
		return fmt.Errorf("register %s: %w", c.Name, ErrDuplicateName)
	}
	// The validator leaves an empty binding to the declaration loader, but
	// a registry entry without an implementation symbol is meaningless.
	if c.Impl == "" {
		return fmt.Errorf("register %s: %w: contract binds no Go implementation", c.Name, ErrInvalidContract)
	}

	bag := diag.NewBag(16)
	if !r.validator.Validate(c, diag.BagReporter{Bag: bag}) {
		first := bag.Items()[0]
		return fmt.Errorf("register %s: %w: [%s] %s",
			c.Name, ErrInvalidContract, first.Code.ID(), first.Message)
	}

	e := &entry{contract: c, impl: impl}
	for i := range c.Params {
		p := &c.Params[i]
		if p.Positional {
			e.positional = append(e.positional, p)
		}
		if p.HasDefault() {
			val, err := evalDefault(p.Default)
			if err != nil {
				return fmt.Errorf("register %s: parameter '%s': %w", c.Name, p.Name, err)
			}
			if e.defaults == nil {
				e.defaults = make(map[string]starlark.Value)
			}
			e.defaults[p.Name] = val
		}
	}

	r.entries[c.Name] = e
	return nil
}

// Names returns the registered callable names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins wraps every registered contract in a starlark.Builtin and
// returns them as predeclared globals.
func (r *Registry) Builtins() starlark.StringDict {
	globals := make(starlark.StringDict, len(r.entries))
	for name, e := range r.entries {
		e := e
		globals[name] = starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			return e.call(r, thread, b, args, kwargs)
		})
	}
	return globals
}

// evalDefault evaluates a declared default value literal. Defaults are
// constant expressions, so a throwaway thread with no globals suffices.
func evalDefault(literal string) (starlark.Value, error) {
	thread := &starlark.Thread{Name: "default"}
	val, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "<default>", literal, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid default value literal %q: %w", literal, err)
	}
	return val, nil
}
