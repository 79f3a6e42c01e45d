// Package values compiles written default values against resolved field
// types.
package values

import (
	"math"

	"fortio.org/safecast"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/resolve"
	"schemac/internal/schema"
)

// Compiler compiles a default value for a field of type t.
type Compiler interface {
	CompileDefault(expr *decl.ValueExpr, t schema.Type, rep diag.Reporter) schema.Value
}

// Names is what the evaluator needs to know about the declarations around it.
// *resolve.Scope implements it.
type Names interface {
	resolve.TypeResolver
	Enumerant(enumID uint64, name string) (uint32, bool)
	Constant(name []string) (*decl.Decl, bool)
}

// maxConstDepth bounds chains of constants referring to constants.
const maxConstDepth = 32

// Evaluator is the Compiler used by the driver.
type Evaluator struct {
	names Names
}

// New returns an evaluator resolving constants and enumerants through names.
// names may be nil, in which case only literals compile.
func New(names Names) *Evaluator {
	return &Evaluator{names: names}
}

// Implicit is the value of a field of type t when no default is written:
// zero for numbers, false, the first enumerant, null for pointers.
func Implicit(t schema.Type) schema.Value {
	return schema.Value{Kind: t.Kind}
}

func (e *Evaluator) CompileDefault(expr *decl.ValueExpr, t schema.Type, rep diag.Reporter) schema.Value {
	if expr == nil {
		return Implicit(t)
	}
	v, ok := e.compile(expr, t, rep, 0)
	if !ok {
		return Implicit(t)
	}
	return v
}

func (e *Evaluator) compile(expr *decl.ValueExpr, t schema.Type, rep diag.Reporter, depth int) (schema.Value, bool) {
	out := schema.Value{Kind: t.Kind}

	if expr.Kind == decl.ValueString && len(expr.Name) > 0 &&
		t.Kind != schema.TypeText && t.Kind != schema.TypeData {
		named := *expr
		named.Kind = decl.ValueName
		expr = &named
	}

	if expr.Kind == decl.ValueName {
		if t.Kind == schema.TypeEnum && len(expr.Name) == 1 && e.names != nil {
			if ord, ok := e.names.Enumerant(t.ID, expr.Name[0]); ok {
				out.Uint = uint64(ord)
				return out, true
			}
		}
		if !isKeyword(expr) {
			return e.constant(expr, t, rep, depth)
		}
	}

	switch t.Kind {
	case schema.TypeVoid:
		if isName(expr, "void") {
			return out, true
		}
	case schema.TypeBool:
		switch {
		case isName(expr, "true"):
			out.Bool = true
			return out, true
		case isName(expr, "false"):
			return out, true
		}
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		i, ok, matched := signed(expr)
		if !matched {
			break
		}
		if ok {
			ok = fitsSigned(t.Kind, i)
		}
		if !ok {
			return outOfRange(rep, expr)
		}
		out.Int = i
		return out, true
	case schema.TypeUInt8, schema.TypeUInt16, schema.TypeUInt32, schema.TypeUInt64:
		switch expr.Kind {
		case decl.ValuePositiveInt:
			if !fitsUnsigned(t.Kind, expr.Uint) {
				return outOfRange(rep, expr)
			}
			out.Uint = expr.Uint
			return out, true
		case decl.ValueNegativeInt:
			if expr.Uint == 0 {
				return out, true
			}
			return outOfRange(rep, expr)
		}
	case schema.TypeFloat32, schema.TypeFloat64:
		f, matched := floatValue(expr)
		if !matched {
			break
		}
		if t.Kind == schema.TypeFloat32 {
			f = float64(float32(f))
		}
		out.Float = f
		return out, true
	case schema.TypeText:
		if expr.Kind == decl.ValueString {
			out.Text = expr.Text
			return out, true
		}
	case schema.TypeData:
		if expr.Kind == decl.ValueString {
			out.Data = []byte(expr.Text)
			return out, true
		}
	case schema.TypeEnum:
	default:
		diag.Errorf(rep, diag.ValueUnsupported, expr.Span, "Default values of type %s are not supported.", t)
		return out, false
	}
	diag.Errorf(rep, diag.ValueMismatch, expr.Span, "Type/value mismatch.")
	return out, false
}

func (e *Evaluator) constant(expr *decl.ValueExpr, t schema.Type, rep diag.Reporter, depth int) (schema.Value, bool) {
	out := schema.Value{Kind: t.Kind}
	if e.names == nil {
		diag.Errorf(rep, diag.ValueNotConstant, expr.Span, "'%s' is not a constant.", expr.NameString())
		return out, false
	}
	c, ok := e.names.Constant(expr.Name)
	if !ok || c.Default == nil {
		diag.Errorf(rep, diag.ValueNotConstant, expr.Span, "'%s' is not a constant.", expr.NameString())
		return out, false
	}
	if depth >= maxConstDepth {
		diag.Errorf(rep, diag.ValueNotConstant, expr.Span, "'%s' refers to itself.", expr.NameString())
		return out, false
	}
	ct, ok := e.names.ResolveType(c.Type, diag.NopReporter{})
	if !ok || !sameType(ct, t) {
		diag.ReportError(rep, diag.ValueMismatch, expr.Span, "Type/value mismatch.").
			WithNote(c.Name.Span, "constant '"+expr.NameString()+"' has type "+ct.String()).
			Emit()
		return out, false
	}
	return e.compile(c.Default, t, rep, depth+1)
}

func sameType(a, b schema.Type) bool {
	if a.Kind != b.Kind || a.ID != b.ID {
		return false
	}
	if a.Elem == nil || b.Elem == nil {
		return a.Elem == b.Elem
	}
	return sameType(*a.Elem, *b.Elem)
}

func isName(expr *decl.ValueExpr, name string) bool {
	return expr.Kind == decl.ValueName && len(expr.Name) == 1 && expr.Name[0] == name
}

func isKeyword(expr *decl.ValueExpr) bool {
	if len(expr.Name) != 1 {
		return false
	}
	switch expr.Name[0] {
	case "void", "true", "false", "inf", "nan":
		return true
	}
	return false
}

// signed interprets an integer literal as int64. matched is false when expr is
// not an integer at all; ok is false when it does not fit in 64 bits.
func signed(expr *decl.ValueExpr) (v int64, ok, matched bool) {
	switch expr.Kind {
	case decl.ValuePositiveInt:
		i, err := safecast.Conv[int64](expr.Uint)
		return i, err == nil, true
	case decl.ValueNegativeInt:
		if expr.Uint == 1<<63 {
			return math.MinInt64, true, true
		}
		i, err := safecast.Conv[int64](expr.Uint)
		return -i, err == nil, true
	}
	return 0, false, false
}

func fitsSigned(kind schema.TypeKind, v int64) bool {
	var err error
	switch kind {
	case schema.TypeInt8:
		_, err = safecast.Conv[int8](v)
	case schema.TypeInt16:
		_, err = safecast.Conv[int16](v)
	case schema.TypeInt32:
		_, err = safecast.Conv[int32](v)
	}
	return err == nil
}

func fitsUnsigned(kind schema.TypeKind, v uint64) bool {
	var err error
	switch kind {
	case schema.TypeUInt8:
		_, err = safecast.Conv[uint8](v)
	case schema.TypeUInt16:
		_, err = safecast.Conv[uint16](v)
	case schema.TypeUInt32:
		_, err = safecast.Conv[uint32](v)
	}
	return err == nil
}

func floatValue(expr *decl.ValueExpr) (float64, bool) {
	switch expr.Kind {
	case decl.ValueFloat:
		return expr.Float, true
	case decl.ValuePositiveInt:
		return float64(expr.Uint), true
	case decl.ValueNegativeInt:
		return -float64(expr.Uint), true
	case decl.ValueName:
		switch {
		case isName(expr, "inf"):
			return math.Inf(1), true
		case isName(expr, "nan"):
			return math.NaN(), true
		}
	}
	return 0, false
}

func outOfRange(rep diag.Reporter, expr *decl.ValueExpr) (schema.Value, bool) {
	diag.Errorf(rep, diag.ValueOutOfRange, expr.Span, "Value out-of-range for type.")
	return schema.Value{}, false
}
