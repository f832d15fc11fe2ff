// Package value_objects defines the shared value objects of the ISLE
// compilation module: source locations, tokens and compile diagnostics.
package value_objects

import "fmt"

// SourceLocation is a position inside a rule file.
type SourceLocation struct {
	filename string
	line     int
	column   int
	offset   int
}

// NewSourceLocation creates a new location value.
func NewSourceLocation(filename string, line, column, offset int) SourceLocation {
	return SourceLocation{
		filename: filename,
		line:     line,
		column:   column,
		offset:   offset,
	}
}

// Filename returns the file the location points into.
func (sl SourceLocation) Filename() string {
	return sl.filename
}

// Line returns the 1-based line number.
func (sl SourceLocation) Line() int {
	return sl.line
}

// Column returns the 1-based column number.
func (sl SourceLocation) Column() int {
	return sl.column
}

// Offset returns the byte offset from the start of the file.
func (sl SourceLocation) Offset() int {
	return sl.offset
}

// IsValid reports whether the location points at actual source text.
// File-level diagnostics (e.g. unreadable input) carry a zero line.
func (sl SourceLocation) IsValid() bool {
	return sl.line > 0 && sl.column > 0
}

// String renders the location as file:line:col, or just the filename for
// file-level locations.
func (sl SourceLocation) String() string {
	if !sl.IsValid() {
		return sl.filename
	}
	return fmt.Sprintf("%s:%d:%d", sl.filename, sl.line, sl.column)
}
