// Package decl is the declaration tree handed to the struct translator: the
// parsed shape of a schema file with every name, ordinal and type expression
// carrying its source span.
package decl

import (
	"strings"

	"schemac/internal/source"
)

// Kind tags a declaration.
type Kind uint8

const (
	KindFile Kind = iota
	KindStruct
	KindField
	KindUnion
	KindGroup
	KindEnum
	KindEnumerant
	KindInterface
	KindMethod
	KindConst
	KindUsing
	KindAnnotation
)

var kindNames = [...]string{
	KindFile:       "file",
	KindStruct:     "struct",
	KindField:      "field",
	KindUnion:      "union",
	KindGroup:      "group",
	KindEnum:       "enum",
	KindEnumerant:  "enumerant",
	KindInterface:  "interface",
	KindMethod:     "method",
	KindConst:      "const",
	KindUsing:      "using",
	KindAnnotation: "annotation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "decl?"
}

// KindByName maps the document key of a declaration to its Kind.
func KindByName(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindFile {
			return Kind(k), true
		}
	}
	return 0, false
}

// Located is a value together with where it was written.
type Located[T any] struct {
	Value T
	Span  source.Span
}

// Decl is one node of the declaration tree.
type Decl struct {
	Kind    Kind
	Name    Located[string]
	Ordinal *Located[uint32] // explicit @N, if written
	Span    source.Span
	Nested  []*Decl

	Type    *TypeExpr  // field, const, annotation
	Default *ValueExpr // field default or const value
}

// HasOrdinal reports whether the declaration carries an explicit ordinal.
func (d *Decl) HasOrdinal() bool {
	return d != nil && d.Ordinal != nil
}

// TypeExpr is an unresolved type reference such as `List(foo.Bar)`.
type TypeExpr struct {
	Name   []string
	Params []*TypeExpr
	Span   source.Span
}

func (t *TypeExpr) NameString() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Name, ".")
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "<nil>"
	}
	if len(t.Params) == 0 {
		return t.NameString()
	}
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	return t.NameString() + "(" + strings.Join(params, ", ") + ")"
}

// ValueKind tags a ValueExpr.
type ValueKind uint8

const (
	// ValueName is a bare or qualified identifier: true, inf, Color.red, ...
	ValueName ValueKind = iota
	ValuePositiveInt
	ValueNegativeInt // Uint holds the magnitude
	ValueFloat
	ValueString
)

// ValueExpr is an uncompiled default or constant value.
type ValueExpr struct {
	Kind ValueKind
	// Name is set for ValueName, and for a ValueString read from JSON whose
	// text is a dotted identifier: such a string is taken as a name when the
	// target type is not Text or Data.
	Name  []string
	Uint  uint64
	Float float64
	Text  string
	Span  source.Span
}

func (v *ValueExpr) NameString() string {
	if v == nil {
		return ""
	}
	return strings.Join(v.Name, ".")
}

// File is the declaration tree of one document.
type File struct {
	Path  string
	ID    source.FileID
	Decls []*Decl
}
