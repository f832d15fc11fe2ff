// Package ports defines the external interfaces offered by the ISLE
// compilation module. The driver depends only on this package, so it can be
// tested against stub compilers.
package ports

// CodegenTarget identifies the language the compiler generates code for.
type CodegenTarget int

const (
	// TargetZig generates Zig source text.
	TargetZig CodegenTarget = iota
	// TargetRust generates Rust source text.
	TargetRust
)

// String returns the target's name.
func (t CodegenTarget) String() string {
	switch t {
	case TargetZig:
		return "zig"
	case TargetRust:
		return "rust"
	default:
		return "unknown"
	}
}

// CompileOptions configures a single compilation run.
type CompileOptions struct {
	// Target selects the code generation backend.
	Target CodegenTarget
	// ExcludeGlobalAllowPragmas suppresses the lint-allow pragma block at the
	// top of the generated output.
	ExcludeGlobalAllowPragmas bool
	// Prefixes are prepended, in order, to every generated identifier.
	Prefixes []string
}

// RuleCompiler compiles an ordered set of ISLE rule files into target-language
// source text. The files are treated as one logical rule set in the given
// order. On failure the returned error is a
// *value_objects.CompileErrors carrying at least one diagnostic; generated
// code and errors are never returned together.
type RuleCompiler interface {
	Compile(inputFiles []string, options CompileOptions) (string, error)
}
