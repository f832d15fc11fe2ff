// Package services implements semantic analysis over a parsed rule set: it
// builds the type/term environment and checks that every rule is well formed
// before code generation runs.
package services

import (
	"fmt"

	semantic "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/entities"
	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
	syntax "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
)

// AnalyzerService checks a rule set and produces its semantic environment.
// Checking continues past the first violation so a run reports everything
// it can.
type AnalyzerService struct {
	env    *semantic.Env
	errors *value_objects.CompileErrors
}

// NewAnalyzerService creates an analyzer with a fresh environment.
func NewAnalyzerService() *AnalyzerService {
	return &AnalyzerService{
		env:    semantic.NewEnv(),
		errors: value_objects.NewCompileErrors(),
	}
}

// Analyze processes the rule set. The returned environment is complete only
// when the error collection is empty.
func (as *AnalyzerService) Analyze(ruleSet *syntax.RuleSet) (*semantic.Env, *value_objects.CompileErrors) {
	as.collectDefinitions(ruleSet)
	as.checkDefinitions(ruleSet)
	as.checkRules(ruleSet)

	for _, term := range as.env.Terms() {
		term.SortRules()
	}
	return as.env, as.errors
}

// collectDefinitions registers every named definition so later files may be
// referenced by earlier rules and duplicates are caught across files.
func (as *AnalyzerService) collectDefinitions(ruleSet *syntax.RuleSet) {
	for _, def := range ruleSet.Defs {
		switch d := def.(type) {
		case *syntax.TypeDef:
			if !as.env.DefineType(d) {
				as.errorf(d.Name.Loc, "type %q is defined more than once", d.Name.Name)
			}
		case *syntax.Decl:
			if !as.env.DefineTerm(d) {
				as.errorf(d.Name.Loc, "term %q is declared more than once", d.Name.Name)
			}
		case *syntax.Extractor:
			if !as.env.DefineExtractor(d) {
				as.errorf(d.Name.Loc, "extractor %q collides with an existing term or extractor", d.Name.Name)
			}
		case *syntax.ExternConst:
			if !as.env.DefineConst(d) {
				as.errorf(d.Name.Loc, "constant $%s is declared more than once", d.Name.Name)
			}
		}
	}
}

// checkDefinitions validates type references and extern bindings.
func (as *AnalyzerService) checkDefinitions(ruleSet *syntax.RuleSet) {
	for _, def := range ruleSet.Defs {
		switch d := def.(type) {
		case *syntax.TypeDef:
			if enum := typeEnum(d); enum != nil {
				for _, variant := range enum.Variants {
					for _, field := range variant.Fields {
						as.requireType(field.Type)
					}
				}
			}

		case *syntax.Decl:
			for _, arg := range d.ArgTypes {
				as.requireType(arg)
			}
			as.requireType(d.RetType)

		case *syntax.ExternConst:
			as.requireType(d.Type)

		case *syntax.ExternConstructor:
			term, ok := as.env.LookupTerm(d.Term.Name)
			if !ok {
				as.errorf(d.Term.Loc, "extern constructor for undeclared term %q", d.Term.Name)
				continue
			}
			if term.ExternConstructor != nil {
				as.errorf(d.Term.Loc, "term %q already has an external constructor", d.Term.Name)
				continue
			}
			term.ExternConstructor = d

		case *syntax.ExternExtractor:
			term, ok := as.env.LookupTerm(d.Term.Name)
			if !ok {
				as.errorf(d.Term.Loc, "extern extractor for undeclared term %q", d.Term.Name)
				continue
			}
			if term.ExternExtractor != nil {
				as.errorf(d.Term.Loc, "term %q already has an external extractor", d.Term.Name)
				continue
			}
			term.ExternExtractor = d

		case *syntax.Converter:
			as.requireType(d.From)
			as.requireType(d.To)
			term, ok := as.env.LookupTerm(d.Term.Name)
			if !ok {
				as.errorf(d.Term.Loc, "converter uses undeclared term %q", d.Term.Name)
			} else if term.Arity() != 1 {
				as.errorf(d.Term.Loc, "converter term %q must take exactly one argument", d.Term.Name)
			}
			as.env.AddConverter(d)

		case *syntax.Extractor:
			bound := make(map[string]bool, len(d.Args))
			for _, arg := range d.Args {
				if bound[arg.Name] {
					as.errorf(arg.Loc, "extractor argument %q is repeated", arg.Name)
				}
				bound[arg.Name] = true
			}
			as.checkPattern(d.Template, bound)

			// Templates are inlined during code generation, so a template
			// that reaches its own extractor again can never terminate.
			visited := map[string]bool{d.Name.Name: true}
			if as.templateReaches(d.Template, d.Name.Name, visited) {
				as.errorf(d.Name.Loc, "extractor %q expands through itself", d.Name.Name)
			}
		}
	}
}

// checkRules validates every rule and attaches it to its root term.
func (as *AnalyzerService) checkRules(ruleSet *syntax.RuleSet) {
	for _, def := range ruleSet.Defs {
		rule, ok := def.(*syntax.Rule)
		if !ok {
			continue
		}

		root, ok := rule.Pattern.(*syntax.TermPattern)
		if !ok {
			as.errorf(rule.Pattern.Location(), "rule pattern must be a term application")
			continue
		}

		term, declared := as.env.LookupTerm(root.Name.Name)
		if !declared {
			as.errorf(root.Name.Loc, "rule constructs undeclared term %q", root.Name.Name)
			continue
		}
		if term.ExternConstructor != nil {
			as.errorf(root.Name.Loc,
				"term %q has an external constructor; rules cannot be attached to it", root.Name.Name)
			continue
		}
		if len(root.Args) != term.Arity() {
			as.errorf(root.Name.Loc, "term %q takes %d argument(s), pattern has %d",
				root.Name.Name, term.Arity(), len(root.Args))
		}

		bound := make(map[string]bool)
		for _, arg := range root.Args {
			as.checkPattern(arg, bound)
		}
		as.checkExpr(rule.Expr, bound)

		term.Rules = append(term.Rules, rule)
	}
}

func (as *AnalyzerService) checkPattern(pattern syntax.Pattern, bound map[string]bool) {
	switch p := pattern.(type) {
	case *syntax.IntPattern, *syntax.WildcardPattern:
		// Nothing to resolve.

	case *syntax.ConstPattern:
		if _, ok := as.env.LookupConst(p.Name.Name); !ok {
			as.errorf(p.Name.Loc, "unknown constant $%s", p.Name.Name)
		}

	case *syntax.VarPattern:
		// A repeated variable is an equality constraint, not an error.
		bound[p.Name.Name] = true

	case *syntax.BindPattern:
		bound[p.Name.Name] = true
		as.checkPattern(p.Subpattern, bound)

	case *syntax.AndPattern:
		for _, sub := range p.Subpatterns {
			as.checkPattern(sub, bound)
		}

	case *syntax.TermPattern:
		arity, ok := as.patternTermArity(p.Name)
		if ok && len(p.Args) != arity {
			as.errorf(p.Name.Loc, "term %q takes %d argument(s), pattern has %d",
				p.Name.Name, arity, len(p.Args))
		}
		for _, sub := range p.Args {
			as.checkPattern(sub, bound)
		}
	}
}

// patternTermArity resolves a term used in pattern position: either an
// extractor macro or a declared term with an external extractor.
func (as *AnalyzerService) patternTermArity(name syntax.Ident) (int, bool) {
	if macro, ok := as.env.LookupExtractor(name.Name); ok {
		return len(macro.Args), true
	}
	term, ok := as.env.LookupTerm(name.Name)
	if !ok {
		as.errorf(name.Loc, "unknown term %q in pattern", name.Name)
		return 0, false
	}
	if term.ExternExtractor == nil {
		as.errorf(name.Loc, "term %q has no extractor; it cannot be used in a pattern", name.Name)
		return 0, false
	}
	return term.Arity(), true
}

// templateReaches walks a template pattern, following references to other
// extractor macros, and reports whether it reaches the named extractor.
// The visited set keeps unrelated cycles from stalling the walk.
func (as *AnalyzerService) templateReaches(pattern syntax.Pattern, target string, visited map[string]bool) bool {
	switch p := pattern.(type) {
	case *syntax.BindPattern:
		return as.templateReaches(p.Subpattern, target, visited)

	case *syntax.AndPattern:
		for _, sub := range p.Subpatterns {
			if as.templateReaches(sub, target, visited) {
				return true
			}
		}

	case *syntax.TermPattern:
		if p.Name.Name == target {
			return true
		}
		if macro, ok := as.env.LookupExtractor(p.Name.Name); ok && !visited[p.Name.Name] {
			visited[p.Name.Name] = true
			if as.templateReaches(macro.Template, target, visited) {
				return true
			}
		}
		for _, sub := range p.Args {
			if as.templateReaches(sub, target, visited) {
				return true
			}
		}
	}
	return false
}

func (as *AnalyzerService) checkExpr(expr syntax.Expr, bound map[string]bool) {
	switch e := expr.(type) {
	case *syntax.IntExpr:
		// Nothing to resolve.

	case *syntax.ConstExpr:
		if _, ok := as.env.LookupConst(e.Name.Name); !ok {
			as.errorf(e.Name.Loc, "unknown constant $%s", e.Name.Name)
		}

	case *syntax.VarExpr:
		if !bound[e.Name.Name] {
			as.errorf(e.Name.Loc, "unbound variable %q", e.Name.Name)
		}

	case *syntax.CallExpr:
		if _, isMacro := as.env.LookupExtractor(e.Name.Name); isMacro {
			as.errorf(e.Name.Loc, "extractor %q cannot be used in expression position", e.Name.Name)
		} else if term, ok := as.env.LookupTerm(e.Name.Name); !ok {
			as.errorf(e.Name.Loc, "unknown term %q in expression", e.Name.Name)
		} else if len(e.Args) != term.Arity() {
			as.errorf(e.Name.Loc, "term %q takes %d argument(s), call has %d",
				e.Name.Name, term.Arity(), len(e.Args))
		}
		for _, arg := range e.Args {
			as.checkExpr(arg, bound)
		}

	case *syntax.LetExpr:
		inner := make(map[string]bool, len(bound))
		for name := range bound {
			inner[name] = true
		}
		for _, binding := range e.Bindings {
			as.requireType(binding.Type)
			as.checkExpr(binding.Value, inner)
			inner[binding.Name.Name] = true
		}
		as.checkExpr(e.Body, inner)
	}
}

func (as *AnalyzerService) requireType(name syntax.Ident) {
	if _, ok := as.env.LookupType(name.Name); !ok {
		as.errorf(name.Loc, "unknown type %q", name.Name)
	}
}

func (as *AnalyzerService) errorf(loc value_objects.SourceLocation, format string, args ...interface{}) {
	as.errors.Append(loc, value_objects.ErrorKindSemantic, fmt.Sprintf(format, args...))
}

func typeEnum(def *syntax.TypeDef) *syntax.EnumType {
	if enum, ok := def.Variant.(*syntax.EnumType); ok {
		return enum
	}
	return nil
}
