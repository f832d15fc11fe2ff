// Package driver implements the islec invocation contract: argument
// validation, the fixed compilation options, a single call into the rule
// compiler and the success/failure output protocol.
package driver

import (
	"fmt"
	"io"

	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// Exit statuses of the whole process.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// compileFailedHeader is printed to stderr before the error collection.
const compileFailedHeader = "ISLE compilation failed:"

// The compilation options are compiled-in constants. They never vary with
// arguments or environment; exposing them as flags would require no
// restructuring here, only a change to DefaultOptions.
const (
	defaultTarget                    = ports.TargetZig
	defaultExcludeGlobalAllowPragmas = false
)

// DefaultOptions returns the fixed options used for every run.
func DefaultOptions() ports.CompileOptions {
	return ports.CompileOptions{
		Target:                    defaultTarget,
		ExcludeGlobalAllowPragmas: defaultExcludeGlobalAllowPragmas,
		Prefixes:                  nil,
	}
}

// UsageError reports an invocation with no input files.
type UsageError struct {
	program string
}

// Error renders the usage message, echoing the program's invocation name.
func (e *UsageError) Error() string {
	return fmt.Sprintf("Usage: %s <input.isle> [<input2.isle> ...]", e.program)
}

// ParseInvocation validates the process argument vector. Element 0 is the
// program's own invocation name; the rest are input file paths, returned in
// order. The paths are opaque here: existence and content problems are the
// compiler's to report.
func ParseInvocation(argv []string) ([]string, error) {
	if len(argv) < 2 {
		program := "islec"
		if len(argv) > 0 {
			program = argv[0]
		}
		return nil, &UsageError{program: program}
	}
	return argv[1:], nil
}

// Run executes one compilation: parse the argument vector, call the compiler
// exactly once with the fixed options, and dispatch on the result. On
// success the generated code plus a single trailing newline goes to stdout;
// on any failure stdout stays empty and diagnostics go to stderr. The
// returned value is the process exit status.
func Run(argv []string, stdout, stderr io.Writer, compiler ports.RuleCompiler) int {
	inputFiles, err := ParseInvocation(argv)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return ExitFailure
	}

	generated, err := compiler.Compile(inputFiles, DefaultOptions())
	if err != nil {
		fmt.Fprintln(stderr, compileFailedHeader)
		fmt.Fprintln(stderr, err.Error())
		return ExitFailure
	}

	fmt.Fprintln(stdout, generated)
	return ExitSuccess
}
