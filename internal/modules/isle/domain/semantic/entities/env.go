// Package entities defines the semantic environment built from a rule set:
// the type and term tables that code generation consumes.
package entities

import (
	"sort"

	syntax "github.com/joelreymont/hoist/internal/modules/isle/domain/syntax/entities"
)

// TypeInfo is a resolved type definition.
type TypeInfo struct {
	Def *syntax.TypeDef
}

// Name returns the type's name.
func (ti *TypeInfo) Name() string {
	return ti.Def.Name.Name
}

// Primitive returns the primitive alias target, or "" for enum types.
func (ti *TypeInfo) Primitive() string {
	if prim, ok := ti.Def.Variant.(*syntax.PrimitiveType); ok {
		return prim.Name.Name
	}
	return ""
}

// Enum returns the enum body, or nil for primitive types.
func (ti *TypeInfo) Enum() *syntax.EnumType {
	if enum, ok := ti.Def.Variant.(*syntax.EnumType); ok {
		return enum
	}
	return nil
}

// TermInfo is a declared term with everything attached to it: an external
// constructor or extractor binding, and the rules whose root it is.
type TermInfo struct {
	Decl              *syntax.Decl
	ExternConstructor *syntax.ExternConstructor
	ExternExtractor   *syntax.ExternExtractor
	Rules             []*syntax.Rule
}

// Name returns the term's name.
func (ti *TermInfo) Name() string {
	return ti.Decl.Name.Name
}

// Arity returns the number of term arguments.
func (ti *TermInfo) Arity() int {
	return len(ti.Decl.ArgTypes)
}

// HasRules reports whether any rule constructs this term.
func (ti *TermInfo) HasRules() bool {
	return len(ti.Rules) > 0
}

// SortRules orders the attached rules by descending priority, keeping the
// definition order of equal priorities. An absent priority counts as zero.
func (ti *TermInfo) SortRules() {
	sort.SliceStable(ti.Rules, func(i, j int) bool {
		return rulePriority(ti.Rules[i]) > rulePriority(ti.Rules[j])
	})
}

func rulePriority(rule *syntax.Rule) int64 {
	if rule.Priority == nil {
		return 0
	}
	return *rule.Priority
}

// Env is the semantic environment of one compiled rule set. Iteration
// helpers return entries in definition order so code generation stays
// deterministic.
type Env struct {
	types          map[string]*TypeInfo
	typeOrder      []string
	terms          map[string]*TermInfo
	termOrder      []string
	extractors     map[string]*syntax.Extractor
	extractorOrder []string
	consts         map[string]*syntax.ExternConst
	constOrder     []string
	converters     []*syntax.Converter
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{
		types:      make(map[string]*TypeInfo),
		terms:      make(map[string]*TermInfo),
		extractors: make(map[string]*syntax.Extractor),
		consts:     make(map[string]*syntax.ExternConst),
	}
}

// DefineType registers a type; it reports false on a duplicate name.
func (e *Env) DefineType(def *syntax.TypeDef) bool {
	name := def.Name.Name
	if _, exists := e.types[name]; exists {
		return false
	}
	e.types[name] = &TypeInfo{Def: def}
	e.typeOrder = append(e.typeOrder, name)
	return true
}

// LookupType resolves a type by name.
func (e *Env) LookupType(name string) (*TypeInfo, bool) {
	info, ok := e.types[name]
	return info, ok
}

// Types returns all types in definition order.
func (e *Env) Types() []*TypeInfo {
	result := make([]*TypeInfo, 0, len(e.typeOrder))
	for _, name := range e.typeOrder {
		result = append(result, e.types[name])
	}
	return result
}

// DefineTerm registers a declared term; it reports false on a duplicate name
// (terms and extractor macros share one namespace).
func (e *Env) DefineTerm(decl *syntax.Decl) bool {
	name := decl.Name.Name
	if _, exists := e.terms[name]; exists {
		return false
	}
	if _, exists := e.extractors[name]; exists {
		return false
	}
	e.terms[name] = &TermInfo{Decl: decl}
	e.termOrder = append(e.termOrder, name)
	return true
}

// LookupTerm resolves a declared term by name.
func (e *Env) LookupTerm(name string) (*TermInfo, bool) {
	info, ok := e.terms[name]
	return info, ok
}

// Terms returns all declared terms in definition order.
func (e *Env) Terms() []*TermInfo {
	result := make([]*TermInfo, 0, len(e.termOrder))
	for _, name := range e.termOrder {
		result = append(result, e.terms[name])
	}
	return result
}

// DefineExtractor registers an extractor macro; it reports false on a name
// already taken by a term or another extractor.
func (e *Env) DefineExtractor(def *syntax.Extractor) bool {
	name := def.Name.Name
	if _, exists := e.extractors[name]; exists {
		return false
	}
	if _, exists := e.terms[name]; exists {
		return false
	}
	e.extractors[name] = def
	e.extractorOrder = append(e.extractorOrder, name)
	return true
}

// LookupExtractor resolves an extractor macro by name.
func (e *Env) LookupExtractor(name string) (*syntax.Extractor, bool) {
	def, ok := e.extractors[name]
	return def, ok
}

// DefineConst registers an extern constant; it reports false on a duplicate.
func (e *Env) DefineConst(def *syntax.ExternConst) bool {
	name := def.Name.Name
	if _, exists := e.consts[name]; exists {
		return false
	}
	e.consts[name] = def
	e.constOrder = append(e.constOrder, name)
	return true
}

// LookupConst resolves an extern constant by name.
func (e *Env) LookupConst(name string) (*syntax.ExternConst, bool) {
	def, ok := e.consts[name]
	return def, ok
}

// Consts returns all extern constants in definition order.
func (e *Env) Consts() []*syntax.ExternConst {
	result := make([]*syntax.ExternConst, 0, len(e.constOrder))
	for _, name := range e.constOrder {
		result = append(result, e.consts[name])
	}
	return result
}

// AddConverter records an implicit conversion declaration.
func (e *Env) AddConverter(def *syntax.Converter) {
	e.converters = append(e.converters, def)
}

// Converters returns all converters in definition order.
func (e *Env) Converters() []*syntax.Converter {
	return e.converters
}
