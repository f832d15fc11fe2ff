package codegen

import (
	"fmt"
	"strconv"
	"strings"

	semantic "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/entities"
	syntax "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// ZigGenerator renders a rule set as Zig source text. Everything is emitted
// inside a comptime-generic namespace parameterized by a Context type, which
// supplies extern types, extern constructors/extractors and constants.
type ZigGenerator struct{}

// NewZigGenerator creates the Zig backend.
func NewZigGenerator() *ZigGenerator {
	return &ZigGenerator{}
}

// Generate renders the environment. Output carries no trailing newline; the
// driver appends exactly one.
func (g *ZigGenerator) Generate(env *semantic.Env, options ports.CompileOptions) string {
	var sb strings.Builder

	sb.WriteString("// Code generated by islec from ISLE rule definitions. DO NOT EDIT.\n")
	if !options.ExcludeGlobalAllowPragmas {
		sb.WriteString("// zig fmt: off\n")
	}
	sb.WriteString("\nconst std = @import(\"std\");\n\n")
	sb.WriteString("pub fn RuleSet(comptime Context: type) type {\n")
	sb.WriteString("    return struct {\n")

	for _, ti := range env.Types() {
		g.writeType(&sb, ti, options)
	}

	for _, term := range env.Terms() {
		if term.ExternConstructor != nil || !term.HasRules() {
			continue
		}
		g.writeConstructor(&sb, env, term, options)
	}

	sb.WriteString("    };\n")
	sb.WriteString("}")
	return sb.String()
}

func (g *ZigGenerator) writeType(sb *strings.Builder, ti *semantic.TypeInfo, options ports.CompileOptions) {
	name := prefixed(options.Prefixes, ti.Name())

	if ti.Def.IsExtern {
		fmt.Fprintf(sb, "        pub const %s = Context.%s;\n\n", name, mangle(ti.Name()))
		return
	}
	if prim := ti.Primitive(); prim != "" {
		// Aliasing a primitive under its own name would shadow the builtin.
		if name != prim {
			fmt.Fprintf(sb, "        pub const %s = %s;\n\n", name, prim)
		}
		return
	}

	enum := ti.Enum()
	fmt.Fprintf(sb, "        pub const %s = union(enum) {\n", name)
	for _, variant := range enum.Variants {
		if len(variant.Fields) == 0 {
			fmt.Fprintf(sb, "            %s: void,\n", mangle(variant.Name.Name))
			continue
		}
		fmt.Fprintf(sb, "            %s: struct {", mangle(variant.Name.Name))
		for i, field := range variant.Fields {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(sb, " %s: %s", mangle(field.Name.Name), prefixed(options.Prefixes, field.Type.Name))
		}
		sb.WriteString(" },\n")
	}
	sb.WriteString("        };\n\n")
}

func (g *ZigGenerator) writeConstructor(sb *strings.Builder, env *semantic.Env, term *semantic.TermInfo, options ports.CompileOptions) {
	decl := term.Decl
	retType := prefixed(options.Prefixes, decl.RetType.Name)
	optional := decl.Partial || decl.Multi

	fmt.Fprintf(sb, "        /// Constructor for term `%s`.\n", term.Name())
	fmt.Fprintf(sb, "        pub fn %s(ctx: *Context", prefixed(options.Prefixes, term.Name()))
	for i, arg := range decl.ArgTypes {
		fmt.Fprintf(sb, ", arg%d: %s", i, prefixed(options.Prefixes, arg.Name))
	}
	if optional {
		fmt.Fprintf(sb, ") ?%s {\n", retType)
	} else {
		fmt.Fprintf(sb, ") %s {\n", retType)
	}

	writers := make([]*zigFuncWriter, 0, len(term.Rules))
	for ruleIndex, rule := range term.Rules {
		fw := &zigFuncWriter{
			env:     env,
			options: options,
			label:   fmt.Sprintf("rule_%d", ruleIndex),
			vars:    make(map[string]string),
		}
		fw.line("// rule at %s", rule.Loc)

		root := rule.Pattern.(*syntax.TermPattern)
		for i, arg := range root.Args {
			if i < len(decl.ArgTypes) {
				fw.matchPattern(fmt.Sprintf("arg%d", i), arg)
			}
		}
		value := fw.genExpr(rule.Expr)
		fw.line("return %s;", value)
		writers = append(writers, fw)
	}

	// Discard only the parameters no rule block references; discarding a
	// used parameter is a compile error in Zig.
	if !anyWriterUses(writers, "ctx") {
		sb.WriteString("            _ = ctx;\n")
	}
	for i := range decl.ArgTypes {
		arg := fmt.Sprintf("arg%d", i)
		if !anyWriterUses(writers, arg) {
			fmt.Fprintf(sb, "            _ = %s;\n", arg)
		}
	}

	for _, fw := range writers {
		fmt.Fprintf(sb, "            %s: {\n", fw.label)
		for _, line := range fw.lines {
			fmt.Fprintf(sb, "                %s\n", line)
		}
		sb.WriteString("            }\n")
	}

	if optional {
		sb.WriteString("            return null;\n")
	} else {
		fmt.Fprintf(sb, "            @panic(\"no rule matched for term %s\");\n", term.Name())
	}
	sb.WriteString("        }\n\n")
}

// anyWriterUses reports whether any rule block references name as a whole
// identifier. Comment lines are skipped; source locations in them may
// contain arbitrary text.
func anyWriterUses(writers []*zigFuncWriter, name string) bool {
	for _, fw := range writers {
		for _, line := range fw.lines {
			if strings.HasPrefix(line, "//") {
				continue
			}
			if usesIdentifier(line, name) {
				return true
			}
		}
	}
	return false
}

// zigFuncWriter accumulates the body of one rule block.
type zigFuncWriter struct {
	env          *semantic.Env
	options      ports.CompileOptions
	label        string
	lines        []string
	vars         map[string]string
	extractCount int
}

func (fw *zigFuncWriter) line(format string, args ...interface{}) {
	fw.lines = append(fw.lines, fmt.Sprintf(format, args...))
}

// matchPattern emits the checks and bindings that match value against the
// pattern, breaking out of the rule block on mismatch.
func (fw *zigFuncWriter) matchPattern(value string, pattern syntax.Pattern) {
	switch p := pattern.(type) {
	case *syntax.IntPattern:
		fw.line("if (%s != %s) break :%s;", value, strconv.FormatInt(p.Value, 10), fw.label)

	case *syntax.ConstPattern:
		fw.line("if (!std.meta.eql(%s, ctx.const_%s())) break :%s;", value, mangle(p.Name.Name), fw.label)

	case *syntax.WildcardPattern:
		// Matches anything, binds nothing.

	case *syntax.VarPattern:
		if bound, ok := fw.vars[p.Name.Name]; ok {
			// Repeated variable: equality constraint.
			fw.line("if (!std.meta.eql(%s, %s)) break :%s;", value, bound, fw.label)
			return
		}
		name := mangle(p.Name.Name)
		fw.line("const %s = %s;", name, value)
		fw.vars[p.Name.Name] = name

	case *syntax.BindPattern:
		name := mangle(p.Name.Name)
		fw.line("const %s = %s;", name, value)
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

func (fw *zigFuncWriter) matchTermPattern(value string, pattern *syntax.TermPattern) {
	if macro, ok := fw.env.LookupExtractor(pattern.Name.Name); ok {
		fw.matchPattern(value, expandExtractor(macro, pattern.Args))
		return
	}

	term, ok := fw.env.LookupTerm(pattern.Name.Name)
	if !ok || term.ExternExtractor == nil {
		// Semantic analysis rejects this before codegen runs.
		return
	}

	fn := mangle(term.ExternExtractor.Func.Name)
	arity := term.Arity()

	if arity == 0 {
		if term.ExternExtractor.Infallible {
			fw.line("_ = ctx.%s(%s);", fn, value)
		} else {
			fw.line("if (ctx.%s(%s) == null) break :%s;", fn, value, fw.label)
		}
		return
	}

	tmp := fmt.Sprintf("e%d", fw.extractCount)
	fw.extractCount++
	if term.ExternExtractor.Infallible {
		fw.line("const %s = ctx.%s(%s);", tmp, fn, value)
	} else {
		fw.line("const %s = ctx.%s(%s) orelse break :%s;", tmp, fn, value, fw.label)
	}

	if arity == 1 {
		fw.matchPattern(tmp, pattern.Args[0])
		return
	}
	for i, sub := range pattern.Args {
		fw.matchPattern(fmt.Sprintf("%s[%d]", tmp, i), sub)
	}
}

// genExpr emits any statements an expression needs (lets, fallible calls)
// and returns the Zig expression for its value.
func (fw *zigFuncWriter) genExpr(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.IntExpr:
		return strconv.FormatInt(e.Value, 10)

	case *syntax.ConstExpr:
		return fmt.Sprintf("ctx.const_%s()", mangle(e.Name.Name))

	case *syntax.VarExpr:
		if bound, ok := fw.vars[e.Name.Name]; ok {
			return bound
		}
		return mangle(e.Name.Name)

	case *syntax.CallExpr:
		args := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			args = append(args, fw.genExpr(arg))
		}

		term, ok := fw.env.LookupTerm(e.Name.Name)
		if !ok {
			return "undefined"
		}

		var call string
		if term.ExternConstructor != nil {
			call = fmt.Sprintf("ctx.%s(%s)", mangle(term.ExternConstructor.Func.Name), strings.Join(args, ", "))
		} else {
			callArgs := append([]string{"ctx"}, args...)
			call = fmt.Sprintf("%s(%s)", prefixed(fw.options.Prefixes, term.Name()), strings.Join(callArgs, ", "))
		}
		if term.Decl.Partial || term.Decl.Multi {
			return fmt.Sprintf("(%s orelse break :%s)", call, fw.label)
		}
		return call

	case *syntax.LetExpr:
		for _, binding := range e.Bindings {
			value := fw.genExpr(binding.Value)
			name := mangle(binding.Name.Name)
			fw.line("const %s: %s = %s;", name, prefixed(fw.options.Prefixes, binding.Type.Name), value)
			fw.vars[binding.Name.Name] = name
		}
		return fw.genExpr(e.Body)

	default:
		return "undefined"
	}
}

// expandExtractor inlines an extractor macro's template, substituting the
// macro arguments for its parameters.
func expandExtractor(macro *syntax.Extractor, args []syntax.Pattern) syntax.Pattern {
	repl := make(map[string]syntax.Pattern, len(macro.Args))
	for i, param := range macro.Args {
		if i < len(args) {
			repl[param.Name] = args[i]
		}
	}
	return substitutePattern(macro.Template, repl)
}

func substitutePattern(pattern syntax.Pattern, repl map[string]syntax.Pattern) syntax.Pattern {
	switch p := pattern.(type) {
	case *syntax.VarPattern:
		if actual, ok := repl[p.Name.Name]; ok {
			return actual
		}
		return p

	case *syntax.BindPattern:
		return &syntax.BindPattern{Name: p.Name, Subpattern: substitutePattern(p.Subpattern, repl)}

	case *syntax.AndPattern:
		subs := make([]syntax.Pattern, 0, len(p.Subpatterns))
		for _, sub := range p.Subpatterns {
			subs = append(subs, substitutePattern(sub, repl))
		}
		return &syntax.AndPattern{Subpatterns: subs, Loc: p.Loc}

	case *syntax.TermPattern:
		subs := make([]syntax.Pattern, 0, len(p.Args))
		for _, sub := range p.Args {
			subs = append(subs, substitutePattern(sub, repl))
		}
		return &syntax.TermPattern{Name: p.Name, Args: subs}

	default:
		return pattern
	}
}
