package value_objects

import "strings"

// ErrorKind classifies a compile diagnostic by the stage that produced it.
type ErrorKind string

const (
	ErrorKindIO       ErrorKind = "io"
	ErrorKindLexical  ErrorKind = "lexical"
	ErrorKindSyntax   ErrorKind = "syntax"
	ErrorKindSemantic ErrorKind = "semantic"
	ErrorKindCodegen  ErrorKind = "codegen"
)

// CompileError is a single diagnostic produced while compiling a rule set.
type CompileError struct {
	location SourceLocation
	kind     ErrorKind
	message  string
}

// NewCompileError creates a new diagnostic.
func NewCompileError(location SourceLocation, kind ErrorKind, message string) *CompileError {
	return &CompileError{
		location: location,
		kind:     kind,
		message:  message,
	}
}

// Location returns where the error was detected.
func (ce *CompileError) Location() SourceLocation {
	return ce.location
}

// Kind returns the error's classification.
func (ce *CompileError) Kind() ErrorKind {
	return ce.kind
}

// Message returns the human-readable description.
func (ce *CompileError) Message() string {
	return ce.message
}

// Error renders the diagnostic as location: kind: message.
func (ce *CompileError) Error() string {
	return ce.location.String() + ": " + string(ce.kind) + ": " + ce.message
}

// CompileErrors is an ordered collection of compile diagnostics. A non-empty
// collection is the failure variant of a compilation result.
type CompileErrors struct {
	errors []*CompileError
}

// NewCompileErrors creates an empty collection.
func NewCompileErrors() *CompileErrors {
	return &CompileErrors{}
}

// Append adds a diagnostic built from its parts.
func (ces *CompileErrors) Append(location SourceLocation, kind ErrorKind, message string) {
	ces.errors = append(ces.errors, NewCompileError(location, kind, message))
}

// Add adds an already-built diagnostic.
func (ces *CompileErrors) Add(err *CompileError) {
	ces.errors = append(ces.errors, err)
}

// Merge appends all diagnostics of another collection, preserving order.
func (ces *CompileErrors) Merge(other *CompileErrors) {
	if other == nil {
		return
	}
	ces.errors = append(ces.errors, other.errors...)
}

// HasErrors reports whether any diagnostic was recorded.
func (ces *CompileErrors) HasErrors() bool {
	return len(ces.errors) > 0
}

// Len returns the number of diagnostics.
func (ces *CompileErrors) Len() int {
	return len(ces.errors)
}

// All returns the diagnostics in occurrence order.
func (ces *CompileErrors) All() []*CompileError {
	return ces.errors
}

// Error renders the collection one diagnostic per line, in occurrence order.
func (ces *CompileErrors) Error() string {
	var sb strings.Builder
	for i, err := range ces.errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// AsError returns the collection as an error, or nil when it is empty. This
// keeps the "generated code or errors, never both" invariant at API edges.
func (ces *CompileErrors) AsError() error {
	if ces == nil || !ces.HasErrors() {
		return nil
	}
	return ces
}
