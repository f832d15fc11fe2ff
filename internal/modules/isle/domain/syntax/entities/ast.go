// Package entities defines the abstract syntax tree of an ISLE rule set. One
// RuleSet holds the top-level definitions of all input files, in file order.
package entities

import "github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"

// RuleSet is the parsed union of all input rule files.
type RuleSet struct {
	Defs []Def
}

// Ident is a name together with the location it was written at.
type Ident struct {
	Name string
	Loc  value_objects.SourceLocation
}

// Def is a top-level definition in a rule file.
type Def interface {
	Location() value_objects.SourceLocation
	defNode()
}

// Pragma is a (pragma NAME) definition.
type Pragma struct {
	Name Ident
}

// TypeDef is a (type NAME ...) definition.
type TypeDef struct {
	Name     Ident
	IsExtern bool
	IsNoDebug bool
	Variant  TypeVariant
}

// TypeVariant is the body of a type definition.
type TypeVariant interface {
	typeVariant()
}

// PrimitiveType marks a type as an alias of a primitive host type.
type PrimitiveType struct {
	Name Ident
}

// EnumType defines a sum type with zero or more variants.
type EnumType struct {
	Variants []EnumVariant
}

// EnumVariant is one constructor of an enum type.
type EnumVariant struct {
	Name   Ident
	Fields []EnumField
}

// EnumField is a named, typed field of an enum variant.
type EnumField struct {
	Name Ident
	Type Ident
}

// Decl is a (decl [pure] [multi] [partial] NAME (ARG...) RET) definition.
type Decl struct {
	Name     Ident
	Pure     bool
	Multi    bool
	Partial  bool
	ArgTypes []Ident
	RetType  Ident
}

// Rule is a (rule [name] [priority] (PATTERN) EXPR) definition. The root
// pattern is checked to be a term application during semantic analysis.
type Rule struct {
	Name     *Ident
	Priority *int64
	Pattern  Pattern
	Expr     Expr
	Loc      value_objects.SourceLocation
}

// Extractor is an (extractor (NAME ARG...) TEMPLATE) definition: a macro
// expanded into its template wherever NAME appears in pattern position.
type Extractor struct {
	Name     Ident
	Args     []Ident
	Template Pattern
}

// ExternConstructor binds a term's constructor to a context function.
type ExternConstructor struct {
	Term Ident
	Func Ident
}

// ExternExtractor binds a term's extractor to a context function.
type ExternExtractor struct {
	Term       Ident
	Func       Ident
	Infallible bool
}

// ExternConst declares a '$'-constant provided by the context.
type ExternConst struct {
	Name Ident
	Type Ident
}

// Converter declares an implicit conversion term between two types.
type Converter struct {
	From Ident
	To   Ident
	Term Ident
}

func (d *Pragma) Location() value_objects.SourceLocation            { return d.Name.Loc }
func (d *TypeDef) Location() value_objects.SourceLocation           { return d.Name.Loc }
func (d *Decl) Location() value_objects.SourceLocation              { return d.Name.Loc }
func (d *Rule) Location() value_objects.SourceLocation              { return d.Loc }
func (d *Extractor) Location() value_objects.SourceLocation         { return d.Name.Loc }
func (d *ExternConstructor) Location() value_objects.SourceLocation { return d.Term.Loc }
func (d *ExternExtractor) Location() value_objects.SourceLocation   { return d.Term.Loc }
func (d *ExternConst) Location() value_objects.SourceLocation       { return d.Name.Loc }
func (d *Converter) Location() value_objects.SourceLocation         { return d.Term.Loc }

func (*Pragma) defNode()            {}
func (*TypeDef) defNode()           {}
func (*Decl) defNode()              {}
func (*Rule) defNode()              {}
func (*Extractor) defNode()         {}
func (*ExternConstructor) defNode() {}
func (*ExternExtractor) defNode()   {}
func (*ExternConst) defNode()       {}
func (*Converter) defNode()         {}

func (*PrimitiveType) typeVariant() {}
func (*EnumType) typeVariant()      {}

// Pattern is the left-hand side of a rule or a fragment of one.
type Pattern interface {
	Location() value_objects.SourceLocation
	patternNode()
}

// IntPattern matches an exact integer value.
type IntPattern struct {
	Value int64
	Loc   value_objects.SourceLocation
}

// ConstPattern matches an extern '$'-constant.
type ConstPattern struct {
	Name Ident
}

// WildcardPattern matches anything without binding.
type WildcardPattern struct {
	Loc value_objects.SourceLocation
}

// VarPattern binds the matched value to a variable. A repeated variable in
// the same rule is an equality constraint.
type VarPattern struct {
	Name Ident
}

// BindPattern is "v @ PAT": binds the value and matches the subpattern.
type BindPattern struct {
	Name       Ident
	Subpattern Pattern
}

// AndPattern matches all subpatterns against the same value.
type AndPattern struct {
	Subpatterns []Pattern
	Loc         value_objects.SourceLocation
}

// TermPattern matches a term application (extractor or enum-backed term).
type TermPattern struct {
	Name Ident
	Args []Pattern
}

func (p *IntPattern) Location() value_objects.SourceLocation      { return p.Loc }
func (p *ConstPattern) Location() value_objects.SourceLocation    { return p.Name.Loc }
func (p *WildcardPattern) Location() value_objects.SourceLocation { return p.Loc }
func (p *VarPattern) Location() value_objects.SourceLocation      { return p.Name.Loc }
func (p *BindPattern) Location() value_objects.SourceLocation     { return p.Name.Loc }
func (p *AndPattern) Location() value_objects.SourceLocation      { return p.Loc }
func (p *TermPattern) Location() value_objects.SourceLocation     { return p.Name.Loc }

func (*IntPattern) patternNode()      {}
func (*ConstPattern) patternNode()    {}
func (*WildcardPattern) patternNode() {}
func (*VarPattern) patternNode()      {}
func (*BindPattern) patternNode()     {}
func (*AndPattern) patternNode()      {}
func (*TermPattern) patternNode()     {}

// Expr is the right-hand side of a rule or a fragment of one.
type Expr interface {
	Location() value_objects.SourceLocation
	exprNode()
}

// IntExpr is an integer literal.
type IntExpr struct {
	Value int64
	Loc   value_objects.SourceLocation
}

// ConstExpr references an extern '$'-constant.
type ConstExpr struct {
	Name Ident
}

// VarExpr references a variable bound by the pattern or a let.
type VarExpr struct {
	Name Ident
}

// CallExpr constructs a term.
type CallExpr struct {
	Name Ident
	Args []Expr
}

// LetExpr is (let ((VAR TY VAL)...) BODY).
type LetExpr struct {
	Bindings []LetBinding
	Body     Expr
	Loc      value_objects.SourceLocation
}

// LetBinding is one (VAR TY VAL) binding of a let expression.
type LetBinding struct {
	Name  Ident
	Type  Ident
	Value Expr
}

func (e *IntExpr) Location() value_objects.SourceLocation   { return e.Loc }
func (e *ConstExpr) Location() value_objects.SourceLocation { return e.Name.Loc }
func (e *VarExpr) Location() value_objects.SourceLocation   { return e.Name.Loc }
func (e *CallExpr) Location() value_objects.SourceLocation  { return e.Name.Loc }
func (e *LetExpr) Location() value_objects.SourceLocation   { return e.Loc }

func (*IntExpr) exprNode()   {}
func (*ConstExpr) exprNode() {}
func (*VarExpr) exprNode()   {}
func (*CallExpr) exprNode()  {}
func (*LetExpr) exprNode()   {}
