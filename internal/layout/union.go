package layout

// DataLocation is a span of the parent scope reserved for a union. Members of
// the union overlap inside it.
type DataLocation struct {
	LgSize uint8
	Offset uint32 // in units of 2^LgSize
}

// Union is a set of storage slots shared by mutually exclusive groups.
type Union struct {
	parent Scope

	groupCount  uint32 // groups created
	memberCount uint32 // groups that requested space

	discriminant    uint32
	hasDiscriminant bool

	dataLocations    []DataLocation
	pointerLocations []uint32
}

// NewUnion creates a union allocating from parent.
func (l *Layout) NewUnion(parent Scope) UnionID {
	id := UnionID(len(l.unions))
	l.unions = append(l.unions, Union{parent: parent})
	return id
}

// NewGroup creates one alternative of union u. The group only counts as a
// member once it requests space.
func (l *Layout) NewGroup(u UnionID) GroupID {
	l.unions[u].groupCount++
	id := GroupID(len(l.groups))
	l.groups = append(l.groups, Group{parent: u})
	return id
}

// AddDiscriminant allocates the 16-bit tag of u from its parent scope. Only
// the first call allocates; later calls return false and keep the offset.
func (l *Layout) AddDiscriminant(u UnionID) bool {
	if l.unions[u].hasDiscriminant {
		return false
	}
	offset := l.AddData(l.unions[u].parent, DiscriminantLgSize)
	un := &l.unions[u]
	un.discriminant = offset
	un.hasDiscriminant = true
	return true
}

// Discriminant returns the tag offset of u in 16-bit units.
func (l *Layout) Discriminant(u UnionID) (uint32, bool) {
	un := &l.unions[u]
	return un.discriminant, un.hasDiscriminant
}

// MemberCount reports how many groups of u have claimed space so far.
func (l *Layout) MemberCount(u UnionID) uint32 {
	return l.unions[u].memberCount
}

// GroupCount reports how many groups were created for u.
func (l *Layout) GroupCount(u UnionID) uint32 {
	return l.unions[u].groupCount
}

// DataLocations returns a copy of the data locations reserved for u.
func (l *Layout) DataLocations(u UnionID) []DataLocation {
	return append([]DataLocation(nil), l.unions[u].dataLocations...)
}

// PointerLocations returns a copy of the pointer slots reserved for u.
func (l *Layout) PointerLocations(u UnionID) []uint32 {
	return append([]uint32(nil), l.unions[u].pointerLocations...)
}

func (l *Layout) unionAddMember(u UnionID) {
	l.unions[u].memberCount++
	if l.unions[u].memberCount == 2 {
		l.AddDiscriminant(u)
	}
}

func (l *Layout) addNewDataLocation(u UnionID, lgSize uint8) uint32 {
	offset := l.AddData(l.unions[u].parent, lgSize)
	un := &l.unions[u]
	un.dataLocations = append(un.dataLocations, DataLocation{LgSize: lgSize, Offset: offset})
	return offset
}

func (l *Layout) addNewPointerLocation(u UnionID) uint32 {
	p := l.AddPointer(l.unions[u].parent)
	un := &l.unions[u]
	un.pointerLocations = append(un.pointerLocations, p)
	return p
}

// expandLocation grows data location i of u to 2^newLgSize by expanding it in
// the parent scope.
func (l *Layout) expandLocation(u UnionID, i int, newLgSize uint8) bool {
	loc := l.unions[u].dataLocations[i]
	if newLgSize <= loc.LgSize {
		return true
	}
	factor := newLgSize - loc.LgSize
	if !l.TryExpandData(l.unions[u].parent, loc.LgSize, loc.Offset, factor) {
		return false
	}
	l.unions[u].dataLocations[i] = DataLocation{LgSize: newLgSize, Offset: loc.Offset >> factor}
	return true
}
