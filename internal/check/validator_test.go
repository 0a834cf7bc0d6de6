package check

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"starcheck/internal/contract"
	"starcheck/internal/diag"
)

func runValidate(t *testing.T, c *contract.Callable) []diag.Code {
	t.Helper()
	bag := diag.NewBag(16)
	v := New(DefaultConfig())
	v.Validate(c, diag.BagReporter{Bag: bag})

	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	return codes
}

func wellFormed() *contract.Callable {
	return &contract.Callable{
		Name:                 "glob",
		Impl:                 "files.Glob",
		File:                 "rules/files.star.toml",
		Doc:                  "Expands include patterns.",
		Documented:           true,
		MandatoryPositionals: -1,
	}
}

func TestValidateCleanContract(t *testing.T) {
	c := wellFormed()
	c.Params = []contract.Param{
		{Name: "include", Positional: true, Named: true},
		{Name: "exclude", Positional: true, Named: true, Default: "[]"},
	}
	c.UseThread = true
	c.Formals = []contract.Formal{
		{Name: "include", Type: "*starlark.List"},
		{Name: "exclude", Type: "*starlark.List"},
		{Name: "thread", Type: "*starlark.Thread"},
	}

	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("clean contract produced diagnostics: %v", codes)
	}
}

func TestValidateVisibility(t *testing.T) {
	c := wellFormed()
	c.Impl = "files.glob"

	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkNotExported}) {
		t.Fatalf("codes = %v, want [ChkNotExported]", codes)
	}
}

func TestValidateDocumented(t *testing.T) {
	c := wellFormed()
	c.Doc = ""

	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkUndocumented}) {
		t.Fatalf("codes = %v, want [ChkUndocumented]", codes)
	}

	// Validation fails iff the doc string is empty while documented is true.
	c.Documented = false
	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("undocumented contract should pass, got %v", codes)
	}
}

func TestValidateStructFieldExtras(t *testing.T) {
	base := func() *contract.Callable {
		c := wellFormed()
		c.StructField = true
		return c
	}

	cases := []struct {
		name   string
		mutate func(*contract.Callable)
	}{
		{"use_call_expr", func(c *contract.Callable) {
			c.UseCallExpr = true
			c.Formals = []contract.Formal{{Name: "call", Type: "*syntax.CallExpr"}}
		}},
		{"use_thread", func(c *contract.Callable) {
			c.UseThread = true
			c.Formals = []contract.Formal{{Name: "thread", Type: "*starlark.Thread"}}
		}},
		{"use_location", func(c *contract.Callable) {
			c.UseLocation = true
			c.Formals = []contract.Formal{{Name: "loc", Type: "syntax.Position"}}
		}},
		{"extra_positionals", func(c *contract.Callable) {
			c.ExtraPositionals = "args"
			c.Formals = []contract.Formal{{Name: "args", Type: "starlark.Tuple"}}
		}},
		{"extra_keywords", func(c *contract.Callable) {
			c.ExtraKeywords = "kwargs"
			c.Formals = []contract.Formal{{Name: "kwargs", Type: "*starlark.Dict"}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			codes := runValidate(t, c)
			if !reflect.DeepEqual(codes, []diag.Code{diag.ChkStructFieldExtras}) {
				t.Fatalf("codes = %v, want [ChkStructFieldExtras]", codes)
			}
		})
	}

	// use_semantics stays allowed for struct fields.
	c := base()
	c.UseSemantics = true
	c.Formals = []contract.Formal{{Name: "sem", Type: "*syntax.FileOptions"}}
	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("struct field with use_semantics should pass, got %v", codes)
	}
}

func TestValidateParamShape(t *testing.T) {
	cases := []struct {
		name   string
		params []contract.Param
		want   diag.Code
	}{
		{
			name:   "neither positional nor named",
			params: []contract.Param{{Name: "x"}},
			want:   diag.ChkParamNotPositionalOrNamed,
		},
		{
			name:   "none default not noneable",
			params: []contract.Param{{Name: "x", Positional: true, Default: "None"}},
			want:   diag.ChkNoneDefaultNotNoneable,
		},
		{
			name: "type and allowed_types",
			params: []contract.Param{{
				Name:         "x",
				Positional:   true,
				Type:         "*starlark.List",
				AllowedTypes: []string{"*starlark.List", "starlark.NoneType"},
			}},
			want: diag.ChkTypeAllowedTypesConflict,
		},
		{
			name: "positional after non-positional",
			params: []contract.Param{
				{Name: "a", Named: true},
				{Name: "b", Positional: true},
			},
			want: diag.ChkPositionalAfterNonPositional,
		},
		{
			name: "positional-only after named",
			params: []contract.Param{
				{Name: "a", Positional: true, Named: true},
				{Name: "b", Positional: true},
			},
			want: diag.ChkPositionalOnlyAfterNamed,
		},
		{
			name: "mandatory positional after defaulted",
			params: []contract.Param{
				{Name: "a", Positional: true, Default: "1"},
				{Name: "b", Positional: true},
			},
			want: diag.ChkNonDefaultAfterDefault,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := wellFormed()
			c.Params = tc.params
			c.Formals = make([]contract.Formal, len(tc.params))
			for i, p := range tc.params {
				c.Formals[i] = contract.Formal{Name: p.Name, Type: contract.AnyType}
			}
			codes := runValidate(t, c)
			if !reflect.DeepEqual(codes, []diag.Code{tc.want}) {
				t.Fatalf("codes = %v, want [%v]", codes, tc.want)
			}
		})
	}
}

func TestValidateParamShapeFixedBySwap(t *testing.T) {
	// The orderings rejected above must pass once the offending pair is
	// swapped back into canonical order.
	cases := []struct {
		name   string
		params []contract.Param
	}{
		{
			name: "positional before non-positional",
			params: []contract.Param{
				{Name: "b", Positional: true},
				{Name: "a", Named: true},
			},
		},
		{
			name: "positional-only before named",
			params: []contract.Param{
				{Name: "b", Positional: true},
				{Name: "a", Positional: true, Named: true},
			},
		},
		{
			name: "mandatory positional before defaulted",
			params: []contract.Param{
				{Name: "b", Positional: true},
				{Name: "a", Positional: true, Default: "1"},
			},
		},
		{
			name: "noneable none default",
			params: []contract.Param{
				{Name: "x", Positional: true, Default: "None", Noneable: true},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := wellFormed()
			c.Params = tc.params
			c.Formals = make([]contract.Formal, len(tc.params))
			for i, p := range tc.params {
				c.Formals[i] = contract.Formal{Name: p.Name, Type: contract.AnyType}
			}
			if codes := runValidate(t, c); len(codes) != 0 {
				t.Fatalf("expected no diagnostics, got %v", codes)
			}
		})
	}
}

func TestValidateParamFamilyShortCircuits(t *testing.T) {
	// Two broken parameters, only the first one is reported: the family
	// stops at its first violation.
	c := wellFormed()
	c.Params = []contract.Param{
		{Name: "a"},
		{Name: "b", Positional: true, Default: "None"},
	}
	c.Formals = []contract.Formal{
		{Name: "a", Type: contract.AnyType},
		{Name: "b", Type: contract.AnyType},
	}

	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkParamNotPositionalOrNamed}) {
		t.Fatalf("codes = %v, want only the first shape violation", codes)
	}
}

func TestValidateParamCount(t *testing.T) {
	// contract: p1 (mandatory), p2 (default "1"), use_location=true.
	build := func(formals []contract.Formal) *contract.Callable {
		c := wellFormed()
		c.Params = []contract.Param{
			{Name: "p1", Positional: true},
			{Name: "p2", Positional: true, Default: "1"},
		}
		c.UseLocation = true
		c.Formals = formals
		return c
	}

	ok := build([]contract.Formal{
		{Name: "p1", Type: contract.AnyType},
		{Name: "p2", Type: contract.AnyType},
		{Name: "loc", Type: "syntax.Position"},
	})
	if codes := runValidate(t, ok); len(codes) != 0 {
		t.Fatalf("2 declared + 1 injected should pass, got %v", codes)
	}

	missing := build([]contract.Formal{
		{Name: "p1", Type: contract.AnyType},
		{Name: "p2", Type: contract.AnyType},
	})
	codes := runValidate(t, missing)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkParamCountMismatch}) {
		t.Fatalf("codes = %v, want [ChkParamCountMismatch]", codes)
	}
}

func TestValidateMandatoryPositionalsCount(t *testing.T) {
	c := wellFormed()
	c.MandatoryPositionals = 2
	c.UseThread = true
	c.Formals = []contract.Formal{
		{Name: "x", Type: contract.AnyType},
		{Name: "y", Type: contract.AnyType},
		{Name: "thread", Type: "*starlark.Thread"},
	}

	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("mandatory positionals count should pass, got %v", codes)
	}

	c.Formals = c.Formals[:2]
	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkParamCountMismatch}) {
		t.Fatalf("codes = %v, want [ChkParamCountMismatch]", codes)
	}
}

func TestValidateStructFieldCount(t *testing.T) {
	// A struct field with use_semantics needs exactly the injected formals.
	c := wellFormed()
	c.StructField = true
	c.UseSemantics = true
	c.Formals = []contract.Formal{{Name: "sem", Type: "*syntax.FileOptions"}}

	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("struct field with matching injected formal should pass, got %v", codes)
	}

	c.Formals = nil
	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkStructFieldParamCount}) {
		t.Fatalf("codes = %v, want [ChkStructFieldParamCount]", codes)
	}
}

func TestValidateInjectedTypes(t *testing.T) {
	c := wellFormed()
	c.Params = []contract.Param{{Name: "p1", Positional: true}}
	c.ExtraPositionals = "args"
	c.ExtraKeywords = "kwargs"
	c.UseThread = true
	c.Formals = []contract.Formal{
		{Name: "p1", Type: contract.AnyType},
		{Name: "args", Type: "starlark.Tuple"},
		{Name: "kwargs", Type: "*starlark.Dict"},
		{Name: "thread", Type: "*starlark.Thread"},
	}

	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("canonical trailing order should pass, got %v", codes)
	}

	// Swap two injected formals: the first wrong slot is reported.
	c.Formals[2], c.Formals[3] = c.Formals[3], c.Formals[2]
	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkInjectedTypeMismatch}) {
		t.Fatalf("codes = %v, want [ChkInjectedTypeMismatch]", codes)
	}
}

func TestValidateInjectedTypesBoundsGuarded(t *testing.T) {
	// Fewer physical parameters than injected slots: the count family
	// reports, the trailing family must not crash or double-report.
	c := wellFormed()
	c.Params = []contract.Param{{Name: "p1", Positional: true}}
	c.UseLocation = true
	c.UseThread = true
	c.Formals = []contract.Formal{{Name: "p1", Type: contract.AnyType}}

	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkParamCountMismatch}) {
		t.Fatalf("codes = %v, want [ChkParamCountMismatch]", codes)
	}
}

func TestValidateInjectedTypesSkippedOnCountMismatch(t *testing.T) {
	// With a wrong physical count the trailing cursor would land on a
	// user-supplied formal whose type cannot match the slot. Only the
	// count mismatch may be reported.
	c := wellFormed()
	c.Params = []contract.Param{
		{Name: "p1", Positional: true},
		{Name: "p2", Positional: true},
	}
	c.UseLocation = true
	c.Formals = []contract.Formal{
		{Name: "p1", Type: contract.AnyType},
		{Name: "p2", Type: "starlark.String"},
	}

	codes := runValidate(t, c)
	if !reflect.DeepEqual(codes, []diag.Code{diag.ChkParamCountMismatch}) {
		t.Fatalf("codes = %v, want [ChkParamCountMismatch]", codes)
	}
}

func TestValidateInjectedTypesUncheckedCount(t *testing.T) {
	// No declared parameters and mandatory_positionals unused: the count
	// family does not apply, so the trailing family runs with a guarded
	// cursor and must not crash when formals fall short of the slots.
	c := wellFormed()
	c.UseLocation = true
	c.UseThread = true
	c.Formals = []contract.Formal{{Name: "loc", Type: "syntax.Position"}}

	if codes := runValidate(t, c); len(codes) != 0 {
		t.Fatalf("codes = %v, want none", codes)
	}
}

func TestValidateFamiliesIndependent(t *testing.T) {
	// Violations in several families accumulate in one run.
	c := wellFormed()
	c.Impl = "files.glob"
	c.Doc = ""
	c.Params = []contract.Param{{Name: "x"}}
	c.Formals = nil

	codes := runValidate(t, c)
	want := []diag.Code{
		diag.ChkNotExported,
		diag.ChkUndocumented,
		diag.ChkParamNotPositionalOrNamed,
		diag.ChkParamCountMismatch,
	}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
}

func TestValidateIdempotent(t *testing.T) {
	c := wellFormed()
	c.Doc = ""
	c.Params = []contract.Param{{Name: "x", Positional: true, Default: "None"}}
	c.Formals = []contract.Formal{{Name: "x", Type: contract.AnyType}}

	first := runValidate(t, c)
	second := runValidate(t, c)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validation is not idempotent: %v vs %v", first, second)
	}
}

func TestValidateConcurrent(t *testing.T) {
	// One Validator, many callables, one synchronized sink.
	v := New(DefaultConfig())
	bag := diag.NewBag(64)
	reporter := diag.NewSyncReporter(diag.BagReporter{Bag: bag})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := wellFormed()
			c.Name = fmt.Sprintf("glob%d", i)
			if i%2 == 1 {
				c.Doc = ""
			}
			v.Validate(c, reporter)
		}(i)
	}
	wg.Wait()

	if bag.Len() != 16 {
		t.Fatalf("bag.Len() = %d, want 16", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.ChkUndocumented {
			t.Fatalf("unexpected diagnostic %v", d)
		}
	}
}

func TestValidateCustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThreadType = "*vm.Thread"
	v := New(cfg)

	c := wellFormed()
	c.Params = []contract.Param{{Name: "p1", Positional: true}}
	c.UseThread = true
	c.Formals = []contract.Formal{
		{Name: "p1", Type: contract.AnyType},
		{Name: "thread", Type: "*starlark.Thread"},
	}

	bag := diag.NewBag(4)
	v.Validate(c, diag.BagReporter{Bag: bag})
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ChkInjectedTypeMismatch {
		t.Fatalf("expected one injected-type mismatch, got %v", bag.Items())
	}
}

func TestDefaultConfigTypes(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		slot contract.Injected
		want string
	}{
		{contract.InjectedExtraPositionals, "starlark.Tuple"},
		{contract.InjectedExtraKeywords, "*starlark.Dict"},
		{contract.InjectedLocation, "syntax.Position"},
		{contract.InjectedCallExpr, "*syntax.CallExpr"},
		{contract.InjectedThread, "*starlark.Thread"},
		{contract.InjectedSemantics, "*syntax.FileOptions"},
	}
	for _, tc := range cases {
		if got := cfg.TypeFor(tc.slot); got != tc.want {
			t.Errorf("TypeFor(%v) = %q, want %q", tc.slot, got, tc.want)
		}
	}
}

func TestConfigDigestChanges(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.Digest() != b.Digest() {
		t.Fatal("equal configs must share a digest")
	}
	b.LocationType = "*loc.Location"
	if a.Digest() == b.Digest() {
		t.Fatal("config change must change the digest")
	}
}
