// Package services implements the syntax analysis domain service: a
// recursive-descent parser from token streams to rule-set AST entities.
package services

import (
	"fmt"
	"strings"

	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
	"github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
)

// ParserService parses one file's token stream into top-level definitions.
// After a malformed definition it recovers at the end of the enclosing
// top-level form, so several syntax errors can surface in a single run.
type ParserService struct {
	tokens   []value_objects.Token
	position int
	depth    int
	errors   *value_objects.CompileErrors
}

// NewParserService creates a parser over a lexed token stream.
func NewParserService(tokens []value_objects.Token) *ParserService {
	return &ParserService{
		tokens: tokens,
		errors: value_objects.NewCompileErrors(),
	}
}

// Parse consumes the whole stream and returns the definitions that parsed
// cleanly together with any syntax diagnostics.
func (ps *ParserService) Parse() ([]entities.Def, *value_objects.CompileErrors) {
	defs := make([]entities.Def, 0)

	for !ps.check(value_objects.TokenTypeEOF) {
		if !ps.check(value_objects.TokenTypeLeftParen) {
			ps.errorAtCurrent(fmt.Sprintf("expected '(' at top level, found %s", ps.peek()))
			ps.advance()
			continue
		}
		if def, ok := ps.parseDef(); ok {
			defs = append(defs, def)
		} else {
			ps.recoverToTopLevel()
		}
	}

	return defs, ps.errors
}

func (ps *ParserService) parseDef() (entities.Def, bool) {
	ps.advance() // '('

	head, ok := ps.expectSymbol("definition keyword")
	if !ok {
		return nil, false
	}

	switch head.Lexeme() {
	case "pragma":
		return ps.parsePragma()
	case "type":
		return ps.parseType()
	case "decl":
		return ps.parseDecl()
	case "rule":
		return ps.parseRule(head.Location())
	case "extractor":
		return ps.parseExtractor()
	case "extern":
		return ps.parseExtern()
	case "convert":
		return ps.parseConvert()
	default:
		ps.errors.Append(head.Location(), value_objects.ErrorKindSyntax,
			fmt.Sprintf("unknown definition %q", head.Lexeme()))
		return nil, false
	}
}

func (ps *ParserService) parsePragma() (entities.Def, bool) {
	name, ok := ps.expectSymbol("pragma name")
	if !ok {
		return nil, false
	}
	if !ps.expectClose() {
		return nil, false
	}
	return &entities.Pragma{Name: identOf(name)}, true
}

func (ps *ParserService) parseType() (entities.Def, bool) {
	name, ok := ps.expectSymbol("type name")
	if !ok {
		return nil, false
	}
	def := &entities.TypeDef{Name: identOf(name)}

	for ps.check(value_objects.TokenTypeSymbol) {
		flag := ps.peek().Lexeme()
		if flag == "extern" {
			def.IsExtern = true
			ps.advance()
		} else if flag == "nodebug" {
			def.IsNoDebug = true
			ps.advance()
		} else {
			ps.errorAtCurrent(fmt.Sprintf("unknown type flag %q", flag))
			return nil, false
		}
	}

	variant, ok := ps.parseTypeVariant()
	if !ok {
		return nil, false
	}
	def.Variant = variant

	if !ps.expectClose() {
		return nil, false
	}
	return def, true
}

func (ps *ParserService) parseTypeVariant() (entities.TypeVariant, bool) {
	if !ps.expectOpen("type body") {
		return nil, false
	}
	head, ok := ps.expectSymbol("'primitive' or 'enum'")
	if !ok {
		return nil, false
	}

	switch head.Lexeme() {
	case "primitive":
		prim, ok := ps.expectSymbol("primitive type name")
		if !ok {
			return nil, false
		}
		if !ps.expectClose() {
			return nil, false
		}
		return &entities.PrimitiveType{Name: identOf(prim)}, true

	case "enum":
		enum := &entities.EnumType{}
		for !ps.check(value_objects.TokenTypeRightParen) {
			variant, ok := ps.parseEnumVariant()
			if !ok {
				return nil, false
			}
			enum.Variants = append(enum.Variants, variant)
		}
		ps.advance() // ')'
		return enum, true

	default:
		ps.errors.Append(head.Location(), value_objects.ErrorKindSyntax,
			fmt.Sprintf("expected 'primitive' or 'enum', found %q", head.Lexeme()))
		return nil, false
	}
}

func (ps *ParserService) parseEnumVariant() (entities.EnumVariant, bool) {
	// A unit variant may be written as a bare symbol.
	if ps.check(value_objects.TokenTypeSymbol) {
		name := ps.advance()
		return entities.EnumVariant{Name: identOf(name)}, true
	}

	if !ps.expectOpen("enum variant") {
		return entities.EnumVariant{}, false
	}
	name, ok := ps.expectSymbol("variant name")
	if !ok {
		return entities.EnumVariant{}, false
	}
	variant := entities.EnumVariant{Name: identOf(name)}

	for !ps.check(value_objects.TokenTypeRightParen) {
		if !ps.expectOpen("variant field") {
			return entities.EnumVariant{}, false
		}
		fieldName, ok := ps.expectSymbol("field name")
		if !ok {
			return entities.EnumVariant{}, false
		}
		fieldType, ok := ps.expectSymbol("field type")
		if !ok {
			return entities.EnumVariant{}, false
		}
		if !ps.expectClose() {
			return entities.EnumVariant{}, false
		}
		variant.Fields = append(variant.Fields, entities.EnumField{
			Name: identOf(fieldName),
			Type: identOf(fieldType),
		})
	}
	ps.advance() // ')'
	return variant, true
}

func (ps *ParserService) parseDecl() (entities.Def, bool) {
	def := &entities.Decl{}

	name, ok := ps.expectSymbol("declaration name")
	if !ok {
		return nil, false
	}
	for {
		switch name.Lexeme() {
		case "pure":
			def.Pure = true
		case "multi":
			def.Multi = true
		case "partial":
			def.Partial = true
		default:
			def.Name = identOf(name)
		}
		if def.Name.Name != "" {
			break
		}
		if name, ok = ps.expectSymbol("declaration name"); !ok {
			return nil, false
		}
	}

	if !ps.expectOpen("argument type list") {
		return nil, false
	}
	for !ps.check(value_objects.TokenTypeRightParen) {
		arg, ok := ps.expectSymbol("argument type")
		if !ok {
			return nil, false
		}
		def.ArgTypes = append(def.ArgTypes, identOf(arg))
	}
	ps.advance() // ')'

	ret, ok := ps.expectSymbol("return type")
	if !ok {
		return nil, false
	}
	def.RetType = identOf(ret)

	if !ps.expectClose() {
		return nil, false
	}
	return def, true
}

func (ps *ParserService) parseRule(loc value_objects.SourceLocation) (entities.Def, bool) {
	rule := &entities.Rule{Loc: loc}

	if ps.check(value_objects.TokenTypeSymbol) {
		name := identOf(ps.advance())
		rule.Name = &name
	}
	if ps.check(value_objects.TokenTypeInteger) {
		prio := ps.advance().Value()
		rule.Priority = &prio
	}

	pattern, ok := ps.parsePattern()
	if !ok {
		return nil, false
	}
	rule.Pattern = pattern

	expr, ok := ps.parseExpr()
	if !ok {
		return nil, false
	}
	rule.Expr = expr

	if !ps.expectClose() {
		return nil, false
	}
	return rule, true
}

func (ps *ParserService) parseExtractor() (entities.Def, bool) {
	if !ps.expectOpen("extractor signature") {
		return nil, false
	}
	name, ok := ps.expectSymbol("extractor name")
	if !ok {
		return nil, false
	}
	def := &entities.Extractor{Name: identOf(name)}

	for !ps.check(value_objects.TokenTypeRightParen) {
		arg, ok := ps.expectSymbol("extractor argument")
		if !ok {
			return nil, false
		}
		def.Args = append(def.Args, identOf(arg))
	}
	ps.advance() // ')'

	template, ok := ps.parsePattern()
	if !ok {
		return nil, false
	}
	def.Template = template

	if !ps.expectClose() {
		return nil, false
	}
	return def, true
}

func (ps *ParserService) parseExtern() (entities.Def, bool) {
	kind, ok := ps.expectSymbol("'constructor', 'extractor' or 'const'")
	if !ok {
		return nil, false
	}

	switch kind.Lexeme() {
	case "constructor":
		term, ok := ps.expectSymbol("term name")
		if !ok {
			return nil, false
		}
		fn, ok := ps.expectSymbol("context function name")
		if !ok {
			return nil, false
		}
		if !ps.expectClose() {
			return nil, false
		}
		return &entities.ExternConstructor{Term: identOf(term), Func: identOf(fn)}, true

	case "extractor":
		def := &entities.ExternExtractor{}
		term, ok := ps.expectSymbol("term name")
		if !ok {
			return nil, false
		}
		if term.Lexeme() == "infallible" {
			def.Infallible = true
			if term, ok = ps.expectSymbol("term name"); !ok {
				return nil, false
			}
		}
		def.Term = identOf(term)
		fn, ok := ps.expectSymbol("context function name")
		if !ok {
			return nil, false
		}
		def.Func = identOf(fn)
		if !ps.expectClose() {
			return nil, false
		}
		return def, true

	case "const":
		name, ok := ps.expectSymbol("constant name")
		if !ok {
			return nil, false
		}
		if !strings.HasPrefix(name.Lexeme(), "$") {
			ps.errors.Append(name.Location(), value_objects.ErrorKindSyntax,
				fmt.Sprintf("extern const name must start with '$', found %q", name.Lexeme()))
			return nil, false
		}
		ty, ok := ps.expectSymbol("constant type")
		if !ok {
			return nil, false
		}
		if !ps.expectClose() {
			return nil, false
		}
		return &entities.ExternConst{
			Name: entities.Ident{Name: strings.TrimPrefix(name.Lexeme(), "$"), Loc: name.Location()},
			Type: identOf(ty),
		}, true

	default:
		ps.errors.Append(kind.Location(), value_objects.ErrorKindSyntax,
			fmt.Sprintf("expected 'constructor', 'extractor' or 'const', found %q", kind.Lexeme()))
		return nil, false
	}
}

func (ps *ParserService) parseConvert() (entities.Def, bool) {
	from, ok := ps.expectSymbol("source type")
	if !ok {
		return nil, false
	}
	to, ok := ps.expectSymbol("destination type")
	if !ok {
		return nil, false
	}
	term, ok := ps.expectSymbol("converter term")
	if !ok {
		return nil, false
	}
	if !ps.expectClose() {
		return nil, false
	}
	return &entities.Converter{From: identOf(from), To: identOf(to), Term: identOf(term)}, true
}

func (ps *ParserService) parsePattern() (entities.Pattern, bool) {
	tok := ps.peek()

	switch tok.Type() {
	case value_objects.TokenTypeInteger:
		ps.advance()
		return &entities.IntPattern{Value: tok.Value(), Loc: tok.Location()}, true

	case value_objects.TokenTypeSymbol:
		ps.advance()
		lexeme := tok.Lexeme()
		if lexeme == "_" {
			return &entities.WildcardPattern{Loc: tok.Location()}, true
		}
		if strings.HasPrefix(lexeme, "$") {
			return &entities.ConstPattern{Name: entities.Ident{
				Name: strings.TrimPrefix(lexeme, "$"),
				Loc:  tok.Location(),
			}}, true
		}
		// "v @ PAT" binds and keeps matching.
		if ps.check(value_objects.TokenTypeSymbol) && ps.peek().Lexeme() == "@" {
			ps.advance()
			sub, ok := ps.parsePattern()
			if !ok {
				return nil, false
			}
			return &entities.BindPattern{Name: identOf(tok), Subpattern: sub}, true
		}
		return &entities.VarPattern{Name: identOf(tok)}, true

	case value_objects.TokenTypeLeftParen:
		ps.advance()
		head, ok := ps.expectSymbol("term name")
		if !ok {
			return nil, false
		}
		if head.Lexeme() == "and" {
			pat := &entities.AndPattern{Loc: head.Location()}
			for !ps.check(value_objects.TokenTypeRightParen) {
				sub, ok := ps.parsePattern()
				if !ok {
					return nil, false
				}
				pat.Subpatterns = append(pat.Subpatterns, sub)
			}
			ps.advance() // ')'
			return pat, true
		}
		pat := &entities.TermPattern{Name: identOf(head)}
		for !ps.check(value_objects.TokenTypeRightParen) {
			sub, ok := ps.parsePattern()
			if !ok {
				return nil, false
			}
			pat.Args = append(pat.Args, sub)
		}
		ps.advance() // ')'
		return pat, true

	default:
		ps.errorAtCurrent(fmt.Sprintf("expected pattern, found %s", tok))
		return nil, false
	}
}

func (ps *ParserService) parseExpr() (entities.Expr, bool) {
	tok := ps.peek()

	switch tok.Type() {
	case value_objects.TokenTypeInteger:
		ps.advance()
		return &entities.IntExpr{Value: tok.Value(), Loc: tok.Location()}, true

	case value_objects.TokenTypeSymbol:
		ps.advance()
		lexeme := tok.Lexeme()
		if strings.HasPrefix(lexeme, "$") {
			return &entities.ConstExpr{Name: entities.Ident{
				Name: strings.TrimPrefix(lexeme, "$"),
				Loc:  tok.Location(),
			}}, true
		}
		return &entities.VarExpr{Name: identOf(tok)}, true

	case value_objects.TokenTypeLeftParen:
		ps.advance()
		head, ok := ps.expectSymbol("term name")
		if !ok {
			return nil, false
		}
		if head.Lexeme() == "let" {
			return ps.parseLet(head.Location())
		}
		call := &entities.CallExpr{Name: identOf(head)}
		for !ps.check(value_objects.TokenTypeRightParen) {
			arg, ok := ps.parseExpr()
			if !ok {
				return nil, false
			}
			call.Args = append(call.Args, arg)
		}
		ps.advance() // ')'
		return call, true

	default:
		ps.errorAtCurrent(fmt.Sprintf("expected expression, found %s", tok))
		return nil, false
	}
}

func (ps *ParserService) parseLet(loc value_objects.SourceLocation) (entities.Expr, bool) {
	let := &entities.LetExpr{Loc: loc}

	if !ps.expectOpen("let binding list") {
		return nil, false
	}
	for !ps.check(value_objects.TokenTypeRightParen) {
		if !ps.expectOpen("let binding") {
			return nil, false
		}
		name, ok := ps.expectSymbol("binding name")
		if !ok {
			return nil, false
		}
		ty, ok := ps.expectSymbol("binding type")
		if !ok {
			return nil, false
		}
		value, ok := ps.parseExpr()
		if !ok {
			return nil, false
		}
		if !ps.expectClose() {
			return nil, false
		}
		let.Bindings = append(let.Bindings, entities.LetBinding{
			Name:  identOf(name),
			Type:  identOf(ty),
			Value: value,
		})
	}
	ps.advance() // ')'

	body, ok := ps.parseExpr()
	if !ok {
		return nil, false
	}
	let.Body = body

	if !ps.expectClose() {
		return nil, false
	}
	return let, true
}

func (ps *ParserService) peek() value_objects.Token {
	if ps.position >= len(ps.tokens) {
		return value_objects.NewToken(value_objects.TokenTypeEOF, "", value_objects.SourceLocation{})
	}
	return ps.tokens[ps.position]
}

func (ps *ParserService) advance() value_objects.Token {
	tok := ps.peek()
	if tok.Type() != value_objects.TokenTypeEOF {
		ps.position++
	}
	switch tok.Type() {
	case value_objects.TokenTypeLeftParen:
		ps.depth++
	case value_objects.TokenTypeRightParen:
		if ps.depth > 0 {
			ps.depth--
		}
	}
	return tok
}

func (ps *ParserService) check(tokenType value_objects.TokenType) bool {
	return ps.peek().Type() == tokenType
}

func (ps *ParserService) expectSymbol(what string) (value_objects.Token, bool) {
	if !ps.check(value_objects.TokenTypeSymbol) {
		ps.errorAtCurrent(fmt.Sprintf("expected %s, found %s", what, ps.peek()))
		return value_objects.Token{}, false
	}
	return ps.advance(), true
}

func (ps *ParserService) expectOpen(what string) bool {
	if !ps.check(value_objects.TokenTypeLeftParen) {
		ps.errorAtCurrent(fmt.Sprintf("expected '(' to start %s, found %s", what, ps.peek()))
		return false
	}
	ps.advance()
	return true
}

func (ps *ParserService) expectClose() bool {
	if !ps.check(value_objects.TokenTypeRightParen) {
		ps.errorAtCurrent(fmt.Sprintf("expected ')', found %s", ps.peek()))
		return false
	}
	ps.advance()
	return true
}

func (ps *ParserService) errorAtCurrent(message string) {
	ps.errors.Append(ps.peek().Location(), value_objects.ErrorKindSyntax, message)
}

// recoverToTopLevel skips tokens until the malformed definition's closing
// paren has been consumed, then parsing resumes at the next definition.
func (ps *ParserService) recoverToTopLevel() {
	for ps.depth > 0 && !ps.check(value_objects.TokenTypeEOF) {
		ps.advance()
	}
}

func identOf(tok value_objects.Token) entities.Ident {
	return entities.Ident{Name: tok.Lexeme(), Loc: tok.Location()}
}
