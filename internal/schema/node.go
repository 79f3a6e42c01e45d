package schema

// ElementSize is the preferred encoding of a struct when it appears in a list.
type ElementSize uint8

const (
	ElementEmpty ElementSize = iota
	ElementBit
	ElementByte
	ElementTwoBytes
	ElementFourBytes
	ElementEightBytes
	ElementPointer
	ElementInlineComposite
)

func (e ElementSize) String() string {
	switch e {
	case ElementEmpty:
		return "empty"
	case ElementBit:
		return "bit"
	case ElementByte:
		return "byte"
	case ElementTwoBytes:
		return "twoBytes"
	case ElementFourBytes:
		return "fourBytes"
	case ElementEightBytes:
		return "eightBytes"
	case ElementPointer:
		return "pointer"
	case ElementInlineComposite:
		return "inlineComposite"
	default:
		return "unknown"
	}
}

// MemberKind says which body of a Member is set.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberUnion
	MemberGroup
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberUnion:
		return "union"
	case MemberGroup:
		return "group"
	default:
		return "member?"
	}
}

// Member is one field, union or group of a struct. Members are stored in
// declaration order; Ordinal drives wire placement, CodeOrder is kept for
// tooling.
type Member struct {
	Name      string     `msgpack:"n" json:"name"`
	Ordinal   uint32     `msgpack:"o" json:"ordinal"`
	CodeOrder uint32     `msgpack:"c" json:"codeOrder"`
	Kind      MemberKind `msgpack:"k" json:"kind"`

	Field *Field `msgpack:"f,omitempty" json:"field,omitempty"`
	Union *Union `msgpack:"u,omitempty" json:"union,omitempty"`
	Group *Group `msgpack:"g,omitempty" json:"group,omitempty"`
}

// Field is the body of a field member. Offset is in units of the field's own
// size for data fields and in pointer slots for pointer fields.
type Field struct {
	Type    Type   `msgpack:"t" json:"type"`
	Default Value  `msgpack:"d" json:"default"`
	Offset  uint32 `msgpack:"o" json:"offset"`
}

// Union is the body of a union member. DiscriminantOffset is in 16-bit units.
type Union struct {
	DiscriminantOffset uint32   `msgpack:"d" json:"discriminantOffset"`
	Members            []Member `msgpack:"m" json:"members"`
}

type Group struct {
	Members []Member `msgpack:"m" json:"members"`
}

// StructNode is the compiled layout of a struct.
type StructNode struct {
	DataWordCount         uint16      `msgpack:"dw" json:"dataWordCount"`
	PointerCount          uint16      `msgpack:"pc" json:"pointerCount"`
	PreferredListEncoding ElementSize `msgpack:"le" json:"preferredListEncoding"`
	Members               []Member    `msgpack:"m" json:"members"`
}

// Find returns the member reached by following names through nested unions
// and groups, or nil.
func (s *StructNode) Find(path ...string) *Member {
	members := s.Members
	var found *Member
	for _, name := range path {
		found = nil
		for i := range members {
			if members[i].Name == name {
				found = &members[i]
				break
			}
		}
		if found == nil {
			return nil
		}
		members = found.Children()
	}
	return found
}

// Children returns the nested members of a union or group.
func (m *Member) Children() []Member {
	switch {
	case m.Union != nil:
		return m.Union.Members
	case m.Group != nil:
		return m.Group.Members
	default:
		return nil
	}
}

type Enumerant struct {
	Name      string `msgpack:"n" json:"name"`
	Ordinal   uint32 `msgpack:"o" json:"ordinal"`
	CodeOrder uint32 `msgpack:"c" json:"codeOrder"`
}

// EnumNode lists enumerants in ordinal order.
type EnumNode struct {
	Enumerants []Enumerant `msgpack:"e" json:"enumerants"`
}

// Node is one compiled top-level declaration.
type Node struct {
	ID          uint64      `msgpack:"id" json:"id"`
	DisplayName string      `msgpack:"name" json:"displayName"`
	Struct      *StructNode `msgpack:"s,omitempty" json:"struct,omitempty"`
	Enum        *EnumNode   `msgpack:"e,omitempty" json:"enum,omitempty"`
}
