// Package codegen implements the code generation backends of the ISLE
// compiler. A Generator turns a checked semantic environment into source
// text for one target language.
package codegen

import (
	"strings"

	semantic "github.com/joelreymont/hoist/internal/modules/isle/domain/semantic/entities"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// Generator renders a semantic environment as target-language source text.
// The output is deterministic: equal environments and options produce equal
// text, and no trailing newline is emitted (the driver owns that).
type Generator interface {
	Generate(env *semantic.Env, options ports.CompileOptions) string
}

// NewGenerator creates the backend for the requested target. This is an
// infrastructure-layer factory function.
func NewGenerator(target ports.CodegenTarget) Generator {
	switch target {
	case ports.TargetRust:
		return NewRustGenerator()
	default:
		return NewZigGenerator()
	}
}

// mangle rewrites an ISLE identifier (which may contain '.', '-', '!' and
// other symbol characters) into a valid target-language identifier.
func mangle(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		char := name[i]
		switch {
		case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z', char == '_':
			sb.WriteByte(char)
		case char >= '0' && char <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteByte(char)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// usesIdentifier reports whether name occurs in line as a whole identifier,
// not as part of a longer one.
func usesIdentifier(line, name string) bool {
	for start := 0; ; {
		idx := strings.Index(line[start:], name)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(name)
		before := idx == 0 || !isIdentifierChar(line[idx-1])
		after := end >= len(line) || !isIdentifierChar(line[end])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isIdentifierChar(char byte) bool {
	return char == '_' ||
		(char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9')
}

// prefixed applies the configured identifier prefixes, in order, to a
// generated name.
func prefixed(prefixes []string, name string) string {
	if len(prefixes) == 0 {
		return mangle(name)
	}
	return strings.Join(prefixes, "") + mangle(name)
}
