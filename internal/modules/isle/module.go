// Package isle is the front door of the ISLE rule compiler. It wires the
// lexical, syntax and semantic domain services to a code generation backend
// and exposes the whole pipeline through the RuleCompiler port.
package isle

import (
	"os"
	"time"

	"github.com/joelreymont/hoist/internal/modules/isle/domain/events"
	lexicalServices "github.com/joelreymont/hoist/internal/modules/isle/domain/lexical/services"
	semanticServices "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/services"
	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
	syntaxEntities "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
	syntaxServices "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/services"
	"github.com/joelreymont/hoist/internal/modules/isle/infrastructure/codegen"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// Compiler compiles an ordered list of rule files, treated as one logical
// rule set, into target-language source text.
type Compiler struct {
	lastEvent *events.RuleSetCompiled
}

var _ ports.RuleCompiler = (*Compiler)(nil)

// NewCompiler creates a rule compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile implements ports.RuleCompiler. Each stage runs over all inputs
// before failing, so one invocation reports every diagnostic it can; any
// stage with errors stops the pipeline before code generation.
func (c *Compiler) Compile(inputFiles []string, options ports.CompileOptions) (string, error) {
	start := time.Now()
	errs := value_objects.NewCompileErrors()

	sources := make([]string, len(inputFiles))
	for i, file := range inputFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			errs.Append(value_objects.NewSourceLocation(file, 0, 0, 0),
				value_objects.ErrorKindIO, err.Error())
			continue
		}
		sources[i] = string(content)
	}
	if errs.HasErrors() {
		c.record(inputFiles, options, 0, 0, errs, start)
		return "", errs
	}

	defs := make([]syntaxEntities.Def, 0)
	for i, file := range inputFiles {
		tokens, lexErrs := lexicalServices.NewLexerService(file, sources[i]).Tokenize()
		errs.Merge(lexErrs)

		fileDefs, parseErrs := syntaxServices.NewParserService(tokens).Parse()
		errs.Merge(parseErrs)
		defs = append(defs, fileDefs...)
	}

	ruleSet := &syntaxEntities.RuleSet{Defs: defs}
	ruleCount := countRules(ruleSet)

	if errs.HasErrors() {
		c.record(inputFiles, options, len(defs), ruleCount, errs, start)
		return "", errs
	}

	env, semErrs := semanticServices.NewAnalyzerService().Analyze(ruleSet)
	errs.Merge(semErrs)
	if errs.HasErrors() {
		c.record(inputFiles, options, len(defs), ruleCount, errs, start)
		return "", errs
	}

	output := codegen.NewGenerator(options.Target).Generate(env, options)
	c.record(inputFiles, options, len(defs), ruleCount, errs, start)
	return output, nil
}

// LastEvent returns the domain event of the most recent compilation, or nil
// when the compiler has not run yet.
func (c *Compiler) LastEvent() *events.RuleSetCompiled {
	return c.lastEvent
}

func (c *Compiler) record(inputFiles []string, options ports.CompileOptions, defCount, ruleCount int, errs *value_objects.CompileErrors, start time.Time) {
	event := events.NewRuleSetCompiled(inputFiles, options.Target.String(),
		defCount, ruleCount, errs.Len(), time.Since(start))
	c.lastEvent = &event
}

func countRules(ruleSet *syntaxEntities.RuleSet) int {
	count := 0
	for _, def := range ruleSet.Defs {
		if _, ok := def.(*syntaxEntities.Rule); ok {
			count++
		}
	}
	return count
}
