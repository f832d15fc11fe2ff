package codegen

import (
	"strings"
	"testing"

	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

func TestRustGenerator_Structure(t *testing.T) {
	env := buildEnv(t, loweringRuleSet)
	output := NewRustGenerator().Generate(env, ports.CompileOptions{Target: ports.TargetRust})

	wantFragments := []string{
		"// Code generated by islec from ISLE rule definitions. DO NOT EDIT.",
		"#![allow(dead_code",
		"use super::*;",
		"pub trait Context {",
		"fn emit_iadd(&mut self, arg0: Value, arg1: Value) -> Value;",
		"fn unpack_iadd(&mut self, value: Inst) -> Option<(Value, Value)>;",
		"pub fn lower<C: Context>(ctx: &mut C, arg0: Inst) -> Value {",
		"'rule_0: {",
		"let Some(e0) = ctx.unpack_iadd(arg0.clone()) else { break 'rule_0; };",
		"unreachable!(\"no rule matched for term lower\")",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(output, fragment) {
			t.Errorf("output is missing %q\n%s", fragment, output)
		}
	}
}

func TestRustGenerator_EnumType(t *testing.T) {
	env := buildEnv(t, `
		(type Value extern (primitive Value))
		(type Cond (enum (Eq (lhs Value) (rhs Value)) Always))
	`)
	output := NewRustGenerator().Generate(env, ports.CompileOptions{Target: ports.TargetRust})

	if !strings.Contains(output, "#[derive(Clone, PartialEq, Debug)]") {
		t.Errorf("enum derives missing:\n%s", output)
	}
	if !strings.Contains(output, "pub enum Cond {") {
		t.Errorf("enum not rendered:\n%s", output)
	}
	if !strings.Contains(output, "Eq { lhs: Value, rhs: Value },") {
		t.Errorf("variant fields not rendered:\n%s", output)
	}
	if !strings.Contains(output, "    Always,\n") {
		t.Errorf("unit variant not rendered:\n%s", output)
	}
}

func TestRustGenerator_AllowPragmas(t *testing.T) {
	env := buildEnv(t, loweringRuleSet)

	withPragmas := NewRustGenerator().Generate(env, ports.CompileOptions{Target: ports.TargetRust})
	if !strings.Contains(withPragmas, "#![allow(") {
		t.Error("allow pragmas missing when ExcludeGlobalAllowPragmas is false")
	}

	without := NewRustGenerator().Generate(env, ports.CompileOptions{
		Target:                    ports.TargetRust,
		ExcludeGlobalAllowPragmas: true,
	})
	if strings.Contains(without, "#![allow(") {
		t.Error("allow pragmas present despite ExcludeGlobalAllowPragmas")
	}
}

func TestRustGenerator_PartialConstructor(t *testing.T) {
	env := buildEnv(t, `
		(type T extern (primitive T))
		(decl partial f (T) T)
		(rule (f 4) 8)
	`)
	output := NewRustGenerator().Generate(env, ports.CompileOptions{Target: ports.TargetRust})

	if !strings.Contains(output, "pub fn f<C: Context>(ctx: &mut C, arg0: T) -> Option<T> {") {
		t.Errorf("partial constructor does not return an Option:\n%s", output)
	}
	if !strings.Contains(output, "if arg0 != 4 { break 'rule_0; }") {
		t.Errorf("integer pattern not compiled to a comparison:\n%s", output)
	}
	if !strings.Contains(output, "return Some(8);") {
		t.Errorf("rule result not wrapped in Some:\n%s", output)
	}
	if !strings.Contains(output, "    None\n") {
		t.Errorf("partial constructor is missing its fallthrough:\n%s", output)
	}
}

func TestGeneratorFactory(t *testing.T) {
	if _, ok := NewGenerator(ports.TargetZig).(*ZigGenerator); !ok {
		t.Error("TargetZig did not produce the Zig backend")
	}
	if _, ok := NewGenerator(ports.TargetRust).(*RustGenerator); !ok {
		t.Error("TargetRust did not produce the Rust backend")
	}
}

func TestMangle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "lower", want: "lower"},
		{in: "u32.add", want: "u32_add"},
		{in: "is-zero?", want: "is_zero_"},
		{in: "8bit", want: "_8bit"},
	}
	for _, tt := range tests {
		if got := mangle(tt.in); got != tt.want {
			t.Errorf("mangle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
