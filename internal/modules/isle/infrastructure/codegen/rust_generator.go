package codegen

import (
	"fmt"
	"strconv"
	"strings"

	semantic "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/entities"
	syntax "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// RustGenerator renders a rule set as Rust source text. Extern types come
// from the embedding module via `use super::*`; extern constructors,
// extractors and constants become methods on a generated Context trait.
type RustGenerator struct{}

// NewRustGenerator creates the Rust backend.
func NewRustGenerator() *RustGenerator {
	return &RustGenerator{}
}

// Generate renders the environment without a trailing newline.
func (g *RustGenerator) Generate(env *semantic.Env, options ports.CompileOptions) string {
	var sb strings.Builder

	sb.WriteString("// Code generated by islec from ISLE rule definitions. DO NOT EDIT.\n")
	if !options.ExcludeGlobalAllowPragmas {
		sb.WriteString("#![allow(dead_code, non_snake_case, non_camel_case_types, unused_variables, unreachable_code, unreachable_patterns)]\n")
	}
	sb.WriteString("\nuse super::*;\n\n")

	for _, ti := range env.Types() {
		g.writeType(&sb, ti, options)
	}

	g.writeContextTrait(&sb, env, options)

	for _, term := range env.Terms() {
		if term.ExternConstructor != nil || !term.HasRules() {
			continue
		}
		g.writeConstructor(&sb, env, term, options)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (g *RustGenerator) writeType(sb *strings.Builder, ti *semantic.TypeInfo, options ports.CompileOptions) {
	name := prefixed(options.Prefixes, ti.Name())

	if ti.Def.IsExtern {
		fmt.Fprintf(sb, "// Type `%s` is provided by the embedding module.\n", mangle(ti.Name()))
		if len(options.Prefixes) > 0 {
			fmt.Fprintf(sb, "pub type %s = %s;\n", name, mangle(ti.Name()))
		}
		sb.WriteString("\n")
		return
	}
	if prim := ti.Primitive(); prim != "" {
		// A self-referential alias would not compile.
		if name != prim {
			fmt.Fprintf(sb, "pub type %s = %s;\n\n", name, prim)
		}
		return
	}

	enum := ti.Enum()
	sb.WriteString("#[derive(Clone, PartialEq, Debug)]\n")
	fmt.Fprintf(sb, "pub enum %s {\n", name)
	for _, variant := range enum.Variants {
		if len(variant.Fields) == 0 {
			fmt.Fprintf(sb, "    %s,\n", mangle(variant.Name.Name))
			continue
		}
		fmt.Fprintf(sb, "    %s {", mangle(variant.Name.Name))
		for i, field := range variant.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(sb, " %s: %s", mangle(field.Name.Name), g.typeName(options, field.Type.Name))
		}
		sb.WriteString(" },\n")
	}
	sb.WriteString("}\n\n")
}

// writeContextTrait declares one method per extern constructor, extern
// extractor and extern constant, in definition order.
func (g *RustGenerator) writeContextTrait(sb *strings.Builder, env *semantic.Env, options ports.CompileOptions) {
	sb.WriteString("pub trait Context {\n")

	for _, term := range env.Terms() {
		decl := term.Decl

		if term.ExternConstructor != nil {
			fmt.Fprintf(sb, "    fn %s(&mut self", mangle(term.ExternConstructor.Func.Name))
			for i, arg := range decl.ArgTypes {
				fmt.Fprintf(sb, ", arg%d: %s", i, g.typeName(options, arg.Name))
			}
			ret := g.typeName(options, decl.RetType.Name)
			if decl.Partial || decl.Multi {
				ret = fmt.Sprintf("Option<%s>", ret)
			}
			fmt.Fprintf(sb, ") -> %s;\n", ret)
		}

		if term.ExternExtractor != nil {
			outs := make([]string, 0, len(decl.ArgTypes))
			for _, arg := range decl.ArgTypes {
				outs = append(outs, g.typeName(options, arg.Name))
			}
			out := "()"
			if len(outs) == 1 {
				out = outs[0]
			} else if len(outs) > 1 {
				out = "(" + strings.Join(outs, ", ") + ")"
			}
			if !term.ExternExtractor.Infallible {
				out = fmt.Sprintf("Option<%s>", out)
			}
			fmt.Fprintf(sb, "    fn %s(&mut self, value: %s) -> %s;\n",
				mangle(term.ExternExtractor.Func.Name), g.typeName(options, decl.RetType.Name), out)
		}
	}

	for _, constDef := range env.Consts() {
		fmt.Fprintf(sb, "    fn const_%s(&mut self) -> %s;\n",
			mangle(constDef.Name.Name), g.typeName(options, constDef.Type.Name))
	}

	sb.WriteString("}\n\n")
}

// typeName resolves how a declared ISLE type is spelled in generated Rust.
// Prefixed spellings always resolve: prefixed aliases are emitted even for
// extern types.
func (g *RustGenerator) typeName(options ports.CompileOptions, name string) string {
	return prefixed(options.Prefixes, name)
}

func (g *RustGenerator) writeConstructor(sb *strings.Builder, env *semantic.Env, term *semantic.TermInfo, options ports.CompileOptions) {
	decl := term.Decl
	retType := g.typeName(options, decl.RetType.Name)
	optional := decl.Partial || decl.Multi

	fmt.Fprintf(sb, "/// Constructor for term `%s`.\n", term.Name())
	fmt.Fprintf(sb, "pub fn %s<C: Context>(ctx: &mut C", prefixed(options.Prefixes, term.Name()))
	for i, arg := range decl.ArgTypes {
		fmt.Fprintf(sb, ", arg%d: %s", i, g.typeName(options, arg.Name))
	}
	if optional {
		fmt.Fprintf(sb, ") -> Option<%s> {\n", retType)
	} else {
		fmt.Fprintf(sb, ") -> %s {\n", retType)
	}

	for ruleIndex, rule := range term.Rules {
		fw := &rustFuncWriter{
			env:      env,
			options:  options,
			optional: optional,
			label:    fmt.Sprintf("'rule_%d", ruleIndex),
			vars:     make(map[string]string),
		}
		fw.line("// rule at %s", rule.Loc)

		if root, ok := rule.Pattern.(*syntax.TermPattern); ok {
			for i, arg := range root.Args {
				if i < len(decl.ArgTypes) {
					fw.matchPattern(fmt.Sprintf("arg%d", i), arg)
				}
			}
		}
		value := fw.genExpr(rule.Expr)
		if optional {
			fw.line("return Some(%s);", value)
		} else {
			fw.line("return %s;", value)
		}

		fmt.Fprintf(sb, "    %s: {\n", fw.label)
		for _, line := range fw.lines {
			fmt.Fprintf(sb, "        %s\n", line)
		}
		sb.WriteString("    }\n")
	}

	if optional {
		sb.WriteString("    None\n")
	} else {
		fmt.Fprintf(sb, "    unreachable!(\"no rule matched for term %s\")\n", term.Name())
	}
	sb.WriteString("}\n\n")
}

// rustFuncWriter accumulates the body of one rule block.
type rustFuncWriter struct {
	env          *semantic.Env
	options      ports.CompileOptions
	optional     bool
	label        string
	lines        []string
	vars         map[string]string
	extractCount int
	tempCount    int
}

func (fw *rustFuncWriter) line(format string, args ...interface{}) {
	fw.lines = append(fw.lines, fmt.Sprintf(format, args...))
}

func (fw *rustFuncWriter) matchPattern(value string, pattern syntax.Pattern) {
	switch p := pattern.(type) {
	case *syntax.IntPattern:
		fw.line("if %s != %s { break %s; }", value, strconv.FormatInt(p.Value, 10), fw.label)

	case *syntax.ConstPattern:
		fw.line("if %s != ctx.const_%s() { break %s; }", value, mangle(p.Name.Name), fw.label)

	case *syntax.WildcardPattern:
		// Matches anything, binds nothing.

	case *syntax.VarPattern:
		if bound, ok := fw.vars[p.Name.Name]; ok {
			fw.line("if %s != %s { break %s; }", value, bound, fw.label)
			return
		}
		name := mangle(p.Name.Name)
		fw.line("let %s = %s;", name, cloned(value))
		fw.vars[p.Name.Name] = name

	case *syntax.BindPattern:
		name := mangle(p.Name.Name)
		fw.line("let %s = %s;", name, cloned(value))
		fw.vars[p.Name.Name] = name
		fw.matchPattern(name, p.Subpattern)

	case *syntax.AndPattern:
		for _, sub := range p.Subpatterns {
			fw.matchPattern(value, sub)
		}

	case *syntax.TermPattern:
		fw.matchTermPattern(value, p)
	}
}

func (fw *rustFuncWriter) matchTermPattern(value string, pattern *syntax.TermPattern) {
	if macro, ok := fw.env.LookupExtractor(pattern.Name.Name); ok {
		fw.matchPattern(value, expandExtractor(macro, pattern.Args))
		return
	}

	term, ok := fw.env.LookupTerm(pattern.Name.Name)
	if !ok || term.ExternExtractor == nil {
		return
	}

	fn := mangle(term.ExternExtractor.Func.Name)
	arity := term.Arity()

	if arity == 0 {
		if term.ExternExtractor.Infallible {
			fw.line("ctx.%s(%s);", fn, cloned(value))
		} else {
			fw.line("if ctx.%s(%s).is_none() { break %s; }", fn, cloned(value), fw.label)
		}
		return
	}

	tmp := fmt.Sprintf("e%d", fw.extractCount)
	fw.extractCount++
	if term.ExternExtractor.Infallible {
		fw.line("let %s = ctx.%s(%s);", tmp, fn, cloned(value))
	} else {
		fw.line("let Some(%s) = ctx.%s(%s) else { break %s; };", tmp, fn, cloned(value), fw.label)
	}

	if arity == 1 {
		fw.matchPattern(tmp, pattern.Args[0])
		return
	}
	for i, sub := range pattern.Args {
		fw.matchPattern(fmt.Sprintf("%s.%d", tmp, i), sub)
	}
}

func (fw *rustFuncWriter) genExpr(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.IntExpr:
		return strconv.FormatInt(e.Value, 10)

	case *syntax.ConstExpr:
		return fmt.Sprintf("ctx.const_%s()", mangle(e.Name.Name))

	case *syntax.VarExpr:
		if bound, ok := fw.vars[e.Name.Name]; ok {
			return cloned(bound)
		}
		return mangle(e.Name.Name)

	case *syntax.CallExpr:
		args := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			args = append(args, fw.genExpr(arg))
		}

		term, ok := fw.env.LookupTerm(e.Name.Name)
		if !ok {
			return "unreachable!()"
		}

		var call string
		if term.ExternConstructor != nil {
			call = fmt.Sprintf("ctx.%s(%s)", mangle(term.ExternConstructor.Func.Name), strings.Join(args, ", "))
		} else {
			callArgs := append([]string{"ctx"}, args...)
			call = fmt.Sprintf("%s(%s)", prefixed(fw.options.Prefixes, term.Name()), strings.Join(callArgs, ", "))
		}
		if term.Decl.Partial || term.Decl.Multi {
			tmp := fmt.Sprintf("t%d", fw.tempCount)
			fw.tempCount++
			fw.line("let Some(%s) = %s else { break %s; };", tmp, call, fw.label)
			return tmp
		}
		return call

	case *syntax.LetExpr:
		for _, binding := range e.Bindings {
			value := fw.genExpr(binding.Value)
			name := mangle(binding.Name.Name)
			fw.line("let %s: %s = %s;", name, fw.typeName(binding.Type.Name), value)
			fw.vars[binding.Name.Name] = name
		}
		return fw.genExpr(e.Body)

	default:
		return "unreachable!()"
	}
}

func (fw *rustFuncWriter) typeName(name string) string {
	return prefixed(fw.options.Prefixes, name)
}

// cloned guards value bindings against move semantics: bound names are
// cloned, temporaries (call results and literals) are consumed directly.
func cloned(value string) string {
	if value == "" {
		return value
	}
	first := value[0]
	if first >= '0' && first <= '9' || first == '-' {
		return value
	}
	if strings.HasSuffix(value, ")") {
		return value
	}
	return value + ".clone()"
}
