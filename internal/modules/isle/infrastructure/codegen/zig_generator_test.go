package codegen

import (
	"strings"
	"testing"

	lexical "github.com/joelreymont/hoist/internal/modules/isle/domain/lexical/services"
	semantic "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/entities"
	semanticServices "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/services"
	syntaxEntities "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
	syntaxServices "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/services"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// buildEnv runs the frontend over source text so generator tests work from
// real rule sets instead of hand-assembled environments.
func buildEnv(t *testing.T, source string) *semantic.Env {
	t.Helper()
	tokens, lexErrs := lexical.NewLexerService("test.isle", source).Tokenize()
	if lexErrs.HasErrors() {
		t.Fatalf("lexical errors: %v", lexErrs)
	}
	defs, parseErrs := syntaxServices.NewParserService(tokens).Parse()
	if parseErrs.HasErrors() {
		t.Fatalf("syntax errors: %v", parseErrs)
	}
	env, semErrs := semanticServices.NewAnalyzerService().Analyze(&syntaxEntities.RuleSet{Defs: defs})
	if semErrs.HasErrors() {
		t.Fatalf("semantic errors: %v", semErrs)
	}
	return env
}

const loweringRuleSet = `
(type u32 (primitive u32))
(type Value extern (primitive Value))
(type Inst extern (enum (Iadd (a Value) (b Value))))

(decl lower (Inst) Value)
(decl iadd (Value Value) Value)
(extern constructor iadd emit_iadd)
(decl iadd_inst (Value Value) Inst)
(extern extractor iadd_inst unpack_iadd)

(rule (lower (iadd_inst x y)) (iadd x y))
`

func zigOptions() ports.CompileOptions {
	return ports.CompileOptions{Target: ports.TargetZig}
}

func TestZigGenerator_Structure(t *testing.T) {
	env := buildEnv(t, loweringRuleSet)
	output := NewZigGenerator().Generate(env, zigOptions())

	wantFragments := []string{
		"// Code generated by islec from ISLE rule definitions. DO NOT EDIT.",
		"pub fn RuleSet(comptime Context: type) type {",
		"pub const Value = Context.Value;",
		"pub const Inst = Context.Inst;",
		"pub fn lower(ctx: *Context, arg0: Inst) Value {",
		"const e0 = ctx.unpack_iadd(arg0) orelse break :rule_0;",
		"const x = e0[0];",
		"const y = e0[1];",
		"return ctx.emit_iadd(x, y);",
		"@panic(\"no rule matched for term lower\");",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(output, fragment) {
			t.Errorf("output is missing %q\n%s", fragment, output)
		}
	}
	if strings.HasSuffix(output, "\n") {
		t.Error("output carries a trailing newline; the driver owns that")
	}
}

func TestZigGenerator_EnumType(t *testing.T) {
	env := buildEnv(t, `
		(type Value extern (primitive Value))
		(type Cond (enum (Eq (lhs Value) (rhs Value)) Always))
	`)
	output := NewZigGenerator().Generate(env, zigOptions())

	if !strings.Contains(output, "pub const Cond = union(enum) {") {
		t.Errorf("enum type not rendered as tagged union:\n%s", output)
	}
	if !strings.Contains(output, "Eq: struct { lhs: Value, rhs: Value },") {
		t.Errorf("variant fields not rendered:\n%s", output)
	}
	if !strings.Contains(output, "Always: void,") {
		t.Errorf("unit variant not rendered:\n%s", output)
	}
}

func TestZigGenerator_AllowPragmas(t *testing.T) {
	env := buildEnv(t, loweringRuleSet)

	withPragmas := NewZigGenerator().Generate(env, ports.CompileOptions{Target: ports.TargetZig})
	if !strings.Contains(withPragmas, "// zig fmt: off") {
		t.Error("pragma block missing when ExcludeGlobalAllowPragmas is false")
	}

	without := NewZigGenerator().Generate(env, ports.CompileOptions{
		Target:                    ports.TargetZig,
		ExcludeGlobalAllowPragmas: true,
	})
	if strings.Contains(without, "// zig fmt: off") {
		t.Error("pragma block present despite ExcludeGlobalAllowPragmas")
	}
}

func TestZigGenerator_Prefixes(t *testing.T) {
	env := buildEnv(t, loweringRuleSet)
	output := NewZigGenerator().Generate(env, ports.CompileOptions{
		Target:   ports.TargetZig,
		Prefixes: []string{"isa_", "x64_"},
	})

	if !strings.Contains(output, "pub fn isa_x64_lower(ctx: *Context, arg0: isa_x64_Inst) isa_x64_Value {") {
		t.Errorf("prefixes not applied to generated identifiers:\n%s", output)
	}
}

func TestZigGenerator_PartialConstructor(t *testing.T) {
	env := buildEnv(t, `
		(type T extern (primitive T))
		(decl partial f (T) T)
		(rule (f 4) 8)
	`)
	output := NewZigGenerator().Generate(env, zigOptions())

	if !strings.Contains(output, "pub fn f(ctx: *Context, arg0: T) ?T {") {
		t.Errorf("partial constructor does not return an optional:\n%s", output)
	}
	if !strings.Contains(output, "if (arg0 != 4) break :rule_0;") {
		t.Errorf("integer pattern not compiled to a comparison:\n%s", output)
	}
	if !strings.Contains(output, "return null;") {
		t.Errorf("partial constructor is missing its fallthrough:\n%s", output)
	}
}

func TestZigGenerator_ParameterDiscards(t *testing.T) {
	// ctx and arg0 are both referenced, so neither may be discarded; Zig
	// rejects a pointless discard of a used parameter.
	used := NewZigGenerator().Generate(buildEnv(t, loweringRuleSet), zigOptions())
	if strings.Contains(used, "_ = ctx;") {
		t.Errorf("ctx discarded despite being used:\n%s", used)
	}
	if strings.Contains(used, "_ = arg0;") {
		t.Errorf("arg0 discarded despite being used:\n%s", used)
	}

	unused := NewZigGenerator().Generate(buildEnv(t, `
		(type T extern (primitive T))
		(decl f (T) T)
		(rule (f _) 0)
	`), zigOptions())
	if !strings.Contains(unused, "_ = ctx;") {
		t.Errorf("unused ctx not discarded:\n%s", unused)
	}
	if !strings.Contains(unused, "_ = arg0;") {
		t.Errorf("unused arg0 not discarded:\n%s", unused)
	}
}

func TestZigGenerator_PriorityOrderAndDeterminism(t *testing.T) {
	env := buildEnv(t, `
		(type T extern (primitive T))
		(decl f (T) T)
		(rule fallback (f _) 0)
		(rule special 5 (f 1) 2)
	`)
	options := zigOptions()
	output := NewZigGenerator().Generate(env, options)

	special := strings.Index(output, "if (arg0 != 1)")
	fallback := strings.Index(output, "return 0;")
	if special == -1 || fallback == -1 {
		t.Fatalf("expected both rules in output:\n%s", output)
	}
	if special > fallback {
		t.Error("higher-priority rule emitted after lower-priority rule")
	}

	if again := NewZigGenerator().Generate(env, options); again != output {
		t.Error("generation is not deterministic for equal inputs")
	}
}

func TestZigGenerator_ExtractorMacroInlining(t *testing.T) {
	env := buildEnv(t, `
		(type T extern (primitive T))
		(decl f (T) T)
		(decl unwrap (T) T)
		(extern extractor unwrap do_unwrap)
		(extractor (forty_two x) (unwrap (and x 42)))
		(rule (f (forty_two v)) v)
	`)
	output := NewZigGenerator().Generate(env, zigOptions())

	if !strings.Contains(output, "const e0 = ctx.do_unwrap(arg0) orelse break :rule_0;") {
		t.Errorf("macro did not expand to the underlying extractor:\n%s", output)
	}
	if !strings.Contains(output, "if (e0 != 42) break :rule_0;") {
		t.Errorf("macro argument substitution failed:\n%s", output)
	}
}

func TestZigGenerator_LetAndEquality(t *testing.T) {
	env := buildEnv(t, `
		(type T extern (primitive T))
		(decl f (T T) T)
		(rule (f x x) (let ((doubled T (f x x))) doubled))
	`)
	output := NewZigGenerator().Generate(env, zigOptions())

	if !strings.Contains(output, "if (!std.meta.eql(arg1, x)) break :rule_0;") {
		t.Errorf("repeated variable not compiled to an equality check:\n%s", output)
	}
	if !strings.Contains(output, "const doubled: T = f(ctx, x, x);") {
		t.Errorf("let binding not emitted:\n%s", output)
	}
}
