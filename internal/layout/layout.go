package layout

import "fmt"

// Sizes are expressed as lg2 of a bit count: 0 = 1 bit, 3 = byte, 6 = word.
const (
	LgBitsPerWord      uint8 = 6
	DiscriminantLgSize uint8 = 4 // 16-bit union tag
)

type (
	// UnionID addresses a Union inside a Layout arena.
	UnionID uint32
	// GroupID addresses a Group inside a Layout arena.
	GroupID uint32
)

// ScopeKind tags the two places a field can allocate from.
type ScopeKind uint8

const (
	ScopeTop ScopeKind = iota
	ScopeGroup
)

// Scope is either the struct's top level or one group of a union.
type Scope struct {
	Kind  ScopeKind
	Group GroupID // valid for ScopeGroup
}

// TopScope returns the struct-level scope.
func TopScope() Scope { return Scope{Kind: ScopeTop} }

// GroupScope returns the scope of the given group.
func GroupScope(id GroupID) Scope { return Scope{Kind: ScopeGroup, Group: id} }

func (s Scope) String() string {
	switch s.Kind {
	case ScopeTop:
		return "top"
	case ScopeGroup:
		return fmt.Sprintf("group#%d", s.Group)
	default:
		return "scope?"
	}
}

// Layout is the arena holding every allocation scope of one struct. Unions
// and groups refer to their parents by index, so the whole tree is owned here
// and released together when the struct is done.
//
// A Layout is not safe for concurrent use; separate structs use separate
// Layouts.
type Layout struct {
	top    Top
	unions []Union
	groups []Group
}

// New creates an empty layout for one struct.
func New() *Layout {
	return &Layout{
		unions: make([]Union, 0, 4),
		groups: make([]Group, 0, 8),
	}
}

// Top returns the struct-level scope state.
func (l *Layout) Top() *Top {
	return &l.top
}

// AddData allocates 2^lgSize bits in scope s and returns the offset in units
// of that size.
func (l *Layout) AddData(s Scope, lgSize uint8) uint32 {
	switch s.Kind {
	case ScopeTop:
		return l.top.addData(lgSize)
	case ScopeGroup:
		return l.groupAddData(s.Group, lgSize)
	default:
		panic(&LayoutError{Kind: LayoutErrBadScope})
	}
}

// AddPointer allocates one pointer slot in scope s.
func (l *Layout) AddPointer(s Scope) uint32 {
	switch s.Kind {
	case ScopeTop:
		return l.top.addPointer()
	case ScopeGroup:
		return l.groupAddPointer(s.Group)
	default:
		panic(&LayoutError{Kind: LayoutErrBadScope})
	}
}

// AddVoid records a zero-sized field in scope s. Inside a group this still
// makes the group an active member of its union.
func (l *Layout) AddVoid(s Scope) {
	switch s.Kind {
	case ScopeTop:
	case ScopeGroup:
		l.addMember(s.Group)
	default:
		panic(&LayoutError{Kind: LayoutErrBadScope})
	}
}

// TryExpandData tries to grow previously allocated space at oldOffset (units
// of 2^oldLgSize) by a factor of 2^factor in place. On failure nothing changes.
func (l *Layout) TryExpandData(s Scope, oldLgSize uint8, oldOffset uint32, factor uint8) bool {
	switch s.Kind {
	case ScopeTop:
		return l.top.tryExpandData(oldLgSize, oldOffset, factor)
	case ScopeGroup:
		return l.groupTryExpandData(s.Group, oldLgSize, oldOffset, factor)
	default:
		panic(&LayoutError{Kind: LayoutErrBadScope})
	}
}
