// Command islec compiles one or more ISLE rule files into Zig source text.
// The input files are compiled together, in argument order, as one logical
// rule set; generated code goes to stdout and diagnostics to stderr.
package main

import (
	"os"

	"github.com/samber/do"

	"github.com/joelreymont/hoist/internal/infrastructure/di"
	"github.com/joelreymont/hoist/internal/modules/driver"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

func main() {
	container := di.NewContainer()

	compiler := do.MustInvoke[ports.RuleCompiler](container.Injector)
	code := driver.Run(os.Args, os.Stdout, os.Stderr, compiler)

	_ = container.Shutdown()
	os.Exit(code)
}
