package resolve

import (
	"hash/fnv"
	"strings"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/schema"
)

// TypeResolver turns a written type into a schema type. Problems are reported
// through rep; ok is false when the result must not be trusted.
type TypeResolver interface {
	ResolveType(expr *decl.TypeExpr, rep diag.Reporter) (t schema.Type, ok bool)
}

var builtins = map[string]schema.TypeKind{
	"Void":    schema.TypeVoid,
	"Bool":    schema.TypeBool,
	"Int8":    schema.TypeInt8,
	"Int16":   schema.TypeInt16,
	"Int32":   schema.TypeInt32,
	"Int64":   schema.TypeInt64,
	"UInt8":   schema.TypeUInt8,
	"UInt16":  schema.TypeUInt16,
	"UInt32":  schema.TypeUInt32,
	"UInt64":  schema.TypeUInt64,
	"Float32": schema.TypeFloat32,
	"Float64": schema.TypeFloat64,
	"Text":    schema.TypeText,
	"Data":    schema.TypeData,
	"List":    schema.TypeList,
	"Object":  schema.TypeObject,
}

// Entry is one declared name.
type Entry struct {
	Kind decl.Kind
	ID   uint64
	Decl *decl.Decl
}

// Scope maps dotted names (`Outer.Inner`) to declarations of a whole document
// set. Builtin type names are always visible and cannot be shadowed.
//
// A Scope is read-only after construction and safe for concurrent lookups.
type Scope struct {
	names      map[string]Entry
	enumerants map[uint64]map[string]uint32
	redecls    []Redeclaration
}

// Redeclaration is a declaration whose qualified name was already taken.
// It is not declared, and neither is anything nested in it.
type Redeclaration struct {
	Name string
	Decl *decl.Decl
	Prev *decl.Decl
}

// NewScope returns an empty scope that knows only the builtin types.
func NewScope() *Scope {
	return &Scope{
		names:      make(map[string]Entry),
		enumerants: make(map[uint64]map[string]uint32),
	}
}

// FromFiles declares every named declaration of files, nested ones under
// their qualified names. When a name is declared twice the first declaration
// owns it and the later one is listed in Redeclarations.
func FromFiles(files ...*decl.File) *Scope {
	s := NewScope()
	for _, f := range files {
		for _, d := range f.Decls {
			s.declare("", d)
		}
	}
	return s
}

func (s *Scope) declare(prefix string, d *decl.Decl) {
	switch d.Kind {
	case decl.KindStruct, decl.KindEnum, decl.KindInterface, decl.KindConst, decl.KindAnnotation:
	default:
		return
	}
	name := d.Name.Value
	if prefix != "" {
		name = prefix + "." + name
	}
	if prev, dup := s.names[name]; dup {
		s.redecls = append(s.redecls, Redeclaration{Name: name, Decl: d, Prev: prev.Decl})
		return
	}
	id := NodeID(name)
	s.names[name] = Entry{Kind: d.Kind, ID: id, Decl: d}
	if d.Kind == decl.KindEnum {
		s.enumerants[id] = enumerantOrdinals(d.Nested)
	}
	for _, n := range d.Nested {
		s.declare(name, n)
	}
}

// enumerantOrdinals maps enumerant names to explicit ordinals, falling back to
// the position among enumerants.
func enumerantOrdinals(nested []*decl.Decl) map[string]uint32 {
	out := make(map[string]uint32)
	var index uint32
	for _, n := range nested {
		if n.Kind != decl.KindEnumerant {
			continue
		}
		ord := index
		if n.HasOrdinal() {
			ord = n.Ordinal.Value
		}
		if _, dup := out[n.Name.Value]; !dup {
			out[n.Name.Value] = ord
		}
		index++
	}
	return out
}

// NodeID derives the stable 64-bit id of a qualified declaration name. The top
// bit is always set so that zero never names a node.
func NodeID(qualified string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(qualified))
	return h.Sum64() | 1<<63
}

// Redeclarations lists the declarations that lost their name to an earlier
// one, in declaration order.
func (s *Scope) Redeclarations() []Redeclaration {
	return s.redecls
}

// Owns reports whether d is the declaration that owns the qualified name.
func (s *Scope) Owns(qualified string, d *decl.Decl) bool {
	e, ok := s.names[qualified]
	return ok && e.Decl == d
}

// Lookup finds a declared (non-builtin) name.
func (s *Scope) Lookup(name []string) (Entry, bool) {
	e, ok := s.names[strings.Join(name, ".")]
	return e, ok
}

// Enumerant returns the ordinal of the named enumerant of enum enumID.
func (s *Scope) Enumerant(enumID uint64, name string) (uint32, bool) {
	ords, ok := s.enumerants[enumID]
	if !ok {
		return 0, false
	}
	ord, ok := ords[name]
	return ord, ok
}

// Constant returns the const declaration with the given qualified name.
func (s *Scope) Constant(name []string) (*decl.Decl, bool) {
	e, ok := s.Lookup(name)
	if !ok || e.Kind != decl.KindConst {
		return nil, false
	}
	return e.Decl, true
}

func (s *Scope) ResolveType(expr *decl.TypeExpr, rep diag.Reporter) (schema.Type, bool) {
	if expr == nil {
		return schema.Type{Kind: schema.TypeVoid}, false
	}
	name := expr.NameString()

	if kind, ok := builtins[name]; ok && len(expr.Name) == 1 {
		if kind == schema.TypeList {
			if len(expr.Params) != 1 {
				diag.Errorf(rep, diag.TypeListParams, expr.Span, "'List' requires exactly one parameter.")
				return schema.Type{Kind: schema.TypeList}, false
			}
			elem, ok := s.ResolveType(expr.Params[0], rep)
			return schema.Type{Kind: schema.TypeList, Elem: &elem}, ok
		}
		if len(expr.Params) != 0 {
			diag.Errorf(rep, diag.TypeBadParams, expr.Span, "'%s' does not accept parameters.", name)
			return schema.Type{Kind: kind}, false
		}
		return schema.Type{Kind: kind}, true
	}

	entry, ok := s.Lookup(expr.Name)
	if !ok {
		diag.Errorf(rep, diag.TypeUnresolved, expr.Span, "'%s' is not defined.", name)
		return schema.Type{Kind: schema.TypeVoid}, false
	}
	var kind schema.TypeKind
	switch entry.Kind {
	case decl.KindStruct:
		kind = schema.TypeStruct
	case decl.KindEnum:
		kind = schema.TypeEnum
	case decl.KindInterface:
		kind = schema.TypeInterface
	default:
		diag.Errorf(rep, diag.TypeNotAType, expr.Span, "'%s' is not a type.", name)
		return schema.Type{Kind: schema.TypeVoid}, false
	}
	if len(expr.Params) != 0 {
		diag.Errorf(rep, diag.TypeBadParams, expr.Span, "'%s' does not accept parameters.", name)
		return schema.Type{Kind: kind, ID: entry.ID}, false
	}
	return schema.Type{Kind: kind, ID: entry.ID}, true
}
