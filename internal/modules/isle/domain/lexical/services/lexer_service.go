// Package services implements the lexical analysis domain service for ISLE
// rule files. The surface syntax is s-expressions: parentheses, symbols,
// integer literals, line comments starting with ';' and nestable block
// comments delimited by "(;" and ";)".
package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
)

// LexerService turns the contents of one rule file into a token stream.
type LexerService struct {
	filename string
	source   string
	position int
	line     int
	column   int
	tokens   []value_objects.Token
	errors   *value_objects.CompileErrors
}

// NewLexerService creates a lexer for a single rule file.
func NewLexerService(filename, source string) *LexerService {
	return &LexerService{
		filename: filename,
		source:   source,
		position: 0,
		line:     1,
		column:   1,
		tokens:   make([]value_objects.Token, 0),
		errors:   value_objects.NewCompileErrors(),
	}
}

// Tokenize scans the whole file. The returned stream always ends with an EOF
// token; diagnostics are collected rather than aborting at the first problem.
func (ls *LexerService) Tokenize() ([]value_objects.Token, *value_objects.CompileErrors) {
	for !ls.isAtEnd() {
		char := ls.source[ls.position]

		switch {
		case char == ' ' || char == '\t' || char == '\r' || char == '\n':
			ls.advance()
		case char == '(':
			if ls.peekNext() == ';' {
				ls.skipBlockComment()
			} else {
				ls.addToken(value_objects.TokenTypeLeftParen, "(")
				ls.advance()
			}
		case char == ')':
			ls.addToken(value_objects.TokenTypeRightParen, ")")
			ls.advance()
		case char == ';':
			// Line comment, runs to end of line.
			for !ls.isAtEnd() && ls.source[ls.position] != '\n' {
				ls.advance()
			}
		case isDigit(char) || (char == '-' && isDigit(ls.peekNext())):
			ls.scanInteger()
		case isSymbolChar(char):
			ls.scanSymbol()
		default:
			ls.errors.Append(ls.location(), value_objects.ErrorKindLexical,
				fmt.Sprintf("unexpected character %q", string(char)))
			ls.advance()
		}
	}

	ls.tokens = append(ls.tokens,
		value_objects.NewToken(value_objects.TokenTypeEOF, "", ls.location()))
	return ls.tokens, ls.errors
}

// skipBlockComment consumes a "(; ... ;)" comment, honoring nesting.
func (ls *LexerService) skipBlockComment() {
	start := ls.location()
	ls.advance() // '('
	ls.advance() // ';'
	depth := 1

	for depth > 0 && !ls.isAtEnd() {
		char := ls.source[ls.position]
		if char == '(' && ls.peekNext() == ';' {
			depth++
			ls.advance()
			ls.advance()
		} else if char == ';' && ls.peekNext() == ')' {
			depth--
			ls.advance()
			ls.advance()
		} else {
			ls.advance()
		}
	}

	if depth > 0 {
		ls.errors.Append(start, value_objects.ErrorKindLexical,
			"unterminated block comment")
	}
}

// scanInteger consumes a decimal, hexadecimal or binary integer literal,
// optionally negative and with '_' digit separators.
func (ls *LexerService) scanInteger() {
	start := ls.location()
	startPos := ls.position

	if ls.source[ls.position] == '-' {
		ls.advance()
	}
	for !ls.isAtEnd() && isIntegerChar(ls.source[ls.position]) {
		ls.advance()
	}

	lexeme := ls.source[startPos:ls.position]
	value, err := parseIntegerLexeme(lexeme)
	if err != nil {
		ls.errors.Append(start, value_objects.ErrorKindLexical,
			fmt.Sprintf("invalid integer literal %q", lexeme))
		return
	}
	ls.tokens = append(ls.tokens, value_objects.NewIntegerToken(lexeme, value, start))
}

// scanSymbol consumes a symbol token. Any run of non-delimiter characters
// that does not start a number is a symbol; this covers identifiers as well
// as '$'-constants, '_', '@' and operator-like names such as '=' or 'u32.add'.
func (ls *LexerService) scanSymbol() {
	start := ls.location()
	startPos := ls.position

	for !ls.isAtEnd() && isSymbolChar(ls.source[ls.position]) {
		ls.advance()
	}

	lexeme := ls.source[startPos:ls.position]
	ls.tokens = append(ls.tokens,
		value_objects.NewToken(value_objects.TokenTypeSymbol, lexeme, start))
}

func (ls *LexerService) addToken(tokenType value_objects.TokenType, lexeme string) {
	ls.tokens = append(ls.tokens, value_objects.NewToken(tokenType, lexeme, ls.location()))
}

func (ls *LexerService) location() value_objects.SourceLocation {
	return value_objects.NewSourceLocation(ls.filename, ls.line, ls.column, ls.position)
}

func (ls *LexerService) isAtEnd() bool {
	return ls.position >= len(ls.source)
}

func (ls *LexerService) peekNext() byte {
	if ls.position+1 >= len(ls.source) {
		return 0
	}
	return ls.source[ls.position+1]
}

func (ls *LexerService) advance() {
	if ls.isAtEnd() {
		return
	}
	if ls.source[ls.position] == '\n' {
		ls.line++
		ls.column = 1
	} else {
		ls.column++
	}
	ls.position++
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

func isIntegerChar(char byte) bool {
	return isDigit(char) || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F') ||
		char == 'x' || char == 'X' || char == '_'
}

func isSymbolChar(char byte) bool {
	switch char {
	case ' ', '\t', '\r', '\n', '(', ')', ';':
		return false
	}
	return char > 32 && char < 127
}

func parseIntegerLexeme(lexeme string) (int64, error) {
	text := strings.ReplaceAll(lexeme, "_", "")
	negative := strings.HasPrefix(text, "-")
	if negative {
		text = text[1:]
	}
	if text == "" {
		return 0, fmt.Errorf("empty integer literal")
	}

	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	} else if strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B") {
		base = 2
		text = text[2:]
	}

	value, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		// The magnitude of a negative literal is capped at 2^63 so the
		// negation cannot wrap.
		if value > 1<<63 {
			return 0, fmt.Errorf("negative literal out of range")
		}
		return -int64(value), nil
	}
	return int64(value), nil
}
