package schema

// TypeKind enumerates the types a field can have.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeFloat32
	TypeFloat64
	TypeText
	TypeData
	TypeList
	TypeEnum
	TypeStruct
	TypeInterface
	TypeObject
)

var typeKindNames = [...]string{
	TypeVoid:      "Void",
	TypeBool:      "Bool",
	TypeInt8:      "Int8",
	TypeInt16:     "Int16",
	TypeInt32:     "Int32",
	TypeInt64:     "Int64",
	TypeUInt8:     "UInt8",
	TypeUInt16:    "UInt16",
	TypeUInt32:    "UInt32",
	TypeUInt64:    "UInt64",
	TypeFloat32:   "Float32",
	TypeFloat64:   "Float64",
	TypeText:      "Text",
	TypeData:      "Data",
	TypeList:      "List",
	TypeEnum:      "enum",
	TypeStruct:    "struct",
	TypeInterface: "interface",
	TypeObject:    "Object",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Storage classes returned by LgSize for types that do not live in the data
// section.
const (
	LgSizeVoid    int8 = -1
	LgSizePointer int8 = -2
)

// LgSize returns lg2 of the field width in bits, LgSizeVoid for zero-width
// types, or LgSizePointer for anything stored in the pointer section.
func (k TypeKind) LgSize() int8 {
	switch k {
	case TypeVoid:
		return LgSizeVoid
	case TypeBool:
		return 0
	case TypeInt8, TypeUInt8:
		return 3
	case TypeInt16, TypeUInt16, TypeEnum:
		return 4
	case TypeInt32, TypeUInt32, TypeFloat32:
		return 5
	case TypeInt64, TypeUInt64, TypeFloat64:
		return 6
	default:
		return LgSizePointer
	}
}

// Type is a resolved field type.
type Type struct {
	Kind TypeKind `msgpack:"k" json:"kind"`
	Elem *Type    `msgpack:"e,omitempty" json:"elem,omitempty"` // List element
	ID   uint64   `msgpack:"id,omitempty" json:"id,omitempty"`  // enum/struct/interface node
}

func (t Type) String() string {
	if t.Kind == TypeList && t.Elem != nil {
		return "List(" + t.Elem.String() + ")"
	}
	return t.Kind.String()
}

// Value is a compiled default value. Only the member matching Type.Kind is
// meaningful; pointer-typed defaults other than Text and Data are null.
type Value struct {
	Kind  TypeKind `msgpack:"k" json:"kind"`
	Bool  bool     `msgpack:"b,omitempty" json:"bool,omitempty"`
	Int   int64    `msgpack:"i,omitempty" json:"int,omitempty"`
	Uint  uint64   `msgpack:"u,omitempty" json:"uint,omitempty"`
	Float float64  `msgpack:"f,omitempty" json:"float,omitempty"`
	Text  string   `msgpack:"t,omitempty" json:"text,omitempty"`
	Data  []byte   `msgpack:"d,omitempty" json:"data,omitempty"`
}
