package value_objects

import "fmt"

// TokenType classifies a lexical token of the ISLE surface syntax.
type TokenType int

const (
	TokenTypeEOF TokenType = iota
	TokenTypeLeftParen
	TokenTypeRightParen
	TokenTypeSymbol
	TokenTypeInteger
)

// String returns a readable name for the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenTypeEOF:
		return "end of file"
	case TokenTypeLeftParen:
		return "'('"
	case TokenTypeRightParen:
		return "')'"
	case TokenTypeSymbol:
		return "symbol"
	case TokenTypeInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// Token is a single lexical token with its source location.
type Token struct {
	tokenType TokenType
	lexeme    string
	value     int64
	location  SourceLocation
}

// NewToken creates a non-integer token.
func NewToken(tokenType TokenType, lexeme string, location SourceLocation) Token {
	return Token{
		tokenType: tokenType,
		lexeme:    lexeme,
		location:  location,
	}
}

// NewIntegerToken creates an integer token carrying its parsed value.
func NewIntegerToken(lexeme string, value int64, location SourceLocation) Token {
	return Token{
		tokenType: TokenTypeInteger,
		lexeme:    lexeme,
		value:     value,
		location:  location,
	}
}

// Type returns the token's type.
func (t Token) Type() TokenType {
	return t.tokenType
}

// Lexeme returns the raw source text of the token.
func (t Token) Lexeme() string {
	return t.lexeme
}

// Value returns the parsed value of an integer token.
func (t Token) Value() int64 {
	return t.value
}

// Location returns where the token starts.
func (t Token) Location() SourceLocation {
	return t.location
}

// String renders the token for diagnostics.
func (t Token) String() string {
	if t.tokenType == TokenTypeSymbol || t.tokenType == TokenTypeInteger {
		return fmt.Sprintf("%s %q", t.tokenType, t.lexeme)
	}
	return t.tokenType.String()
}
