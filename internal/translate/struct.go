// Package translate lays out struct declarations: it assigns every field an
// offset in the data or pointer section, in ordinal order, sharing storage
// between the alternatives of unions.
package translate

import (
	"fmt"
	"math"
	"sort"

	"fortio.org/safecast"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/layout"
	"schemac/internal/resolve"
	"schemac/internal/schema"
	"schemac/internal/values"
)

// noOrdinal sorts members without a usable ordinal after everything else.
const noOrdinal = math.MaxUint32

// memberInfo is one field, union or group found while walking the member
// tree. Parents and children refer to each other by index into
// StructTranslator.members.
type memberInfo struct {
	parent    int // -1 for the struct itself
	codeOrder uint32
	decl      *decl.Decl
	kind      schema.MemberKind
	children  []int

	// scope is where a field allocates; for a group it is the group itself.
	scope layout.Scope
	// union is the layout of a union member.
	union layout.UnionID

	out *schema.Member // nil for the struct itself
}

type ordinalEntry struct {
	ordinal uint32
	member  int
}

// StructTranslator computes struct layouts. One translator can be reused for
// many structs but not concurrently: each Translate call resets its arena.
type StructTranslator struct {
	resolver resolve.TypeResolver
	values   values.Compiler
	rep      diag.Reporter

	layout     *layout.Layout
	members    []memberInfo
	byOrdinal  []ordinalEntry
	lateUnions []int
}

func New(resolver resolve.TypeResolver, vals values.Compiler, rep diag.Reporter) *StructTranslator {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &StructTranslator{resolver: resolver, values: vals, rep: rep}
}

// Translate lays out members of structDecl into out. Declaration problems are
// reported and translation continues, so out is always fully shaped even if
// some offsets are meaningless. A non-nil error means the allocator itself
// failed and out must be discarded.
func (t *StructTranslator) Translate(structDecl *decl.Decl, members []*decl.Decl, out *schema.StructNode) (err error) {
	defer layout.Recover(&err)

	t.layout = layout.New()
	t.members = t.members[:0]
	t.byOrdinal = t.byOrdinal[:0]
	t.lateUnions = t.lateUnions[:0]

	root := t.addMember(memberInfo{parent: -1, decl: structDecl, kind: schema.MemberGroup, scope: layout.TopScope()})
	t.traverseGroup(members, root)
	sort.SliceStable(t.byOrdinal, func(i, j int) bool {
		return t.byOrdinal[i].ordinal < t.byOrdinal[j].ordinal
	})
	out.Members = t.materialize(root)

	dup := NewDuplicateOrdinalDetector(t.rep)
	for _, e := range t.byOrdinal {
		m := &t.members[e.member]
		if m.decl.HasOrdinal() {
			dup.Check(*m.decl.Ordinal)
		}
		m.out.Ordinal = e.ordinal

		switch m.kind {
		case schema.MemberField:
			t.translateField(m)
		case schema.MemberUnion:
			if m.decl.HasOrdinal() && !t.layout.AddDiscriminant(m.union) {
				diag.Errorf(t.rep, diag.OrdRetroactiveUnion, m.decl.Ordinal.Span,
					"Union ordinal, if specified, must be greater than no more than one of its "+
						"member ordinals (i.e. there can only be one field retroactively unionized).")
			}
			t.lateUnions = append(t.lateUnions, e.member)
		case schema.MemberGroup:
			// Group members are placed through their own entries.
		}
	}

	for _, idx := range t.lateUnions {
		m := &t.members[idx]
		t.layout.AddDiscriminant(m.union)
		offset, ok := t.layout.Discriminant(m.union)
		if !ok {
			panic(&layout.LayoutError{Kind: layout.LayoutErrMissingDiscriminant, Union: m.union})
		}
		m.out.Union.DiscriminantOffset = offset
	}

	top := t.layout.Top()
	out.DataWordCount = t.sectionSize(structDecl, "data", top.DataWordCount)
	out.PointerCount = t.sectionSize(structDecl, "pointer", top.PointerCount)
	out.PreferredListEncoding = preferredListEncoding(top)
	return nil
}

func (t *StructTranslator) addMember(m memberInfo) int {
	t.members = append(t.members, m)
	return len(t.members) - 1
}

// link records child under parent and schedules it at ordinal.
func (t *StructTranslator) link(parent, child int, ordinal uint32) {
	t.members[parent].children = append(t.members[parent].children, child)
	t.byOrdinal = append(t.byOrdinal, ordinalEntry{ordinal: ordinal, member: child})
}

// traverseGroup walks the members of the struct itself or of a group. It
// returns the smallest ordinal found below it.
func (t *StructTranslator) traverseGroup(members []*decl.Decl, parent int) uint32 {
	isRoot := t.members[parent].parent < 0
	if !isRoot {
		if len(members) < 2 {
			diag.Errorf(t.rep, diag.DeclGroupTooSmall, t.members[parent].decl.Span, "Group must have at least two members.")
		}
		checkNames(members, t.rep)
	}
	scope := t.members[parent].scope

	minOrdinal := uint32(noOrdinal)
	var codeOrder uint32
	for _, d := range members {
		var ordinal uint32
		child := -1
		switch d.Kind {
		case decl.KindField:
			child = t.addMember(memberInfo{parent: parent, codeOrder: codeOrder, decl: d, kind: schema.MemberField, scope: scope})
			ordinal = t.fieldOrdinal(d)
			codeOrder++
		case decl.KindUnion:
			u := t.layout.NewUnion(scope)
			child = t.addMember(memberInfo{parent: parent, codeOrder: codeOrder, decl: d, kind: schema.MemberUnion, union: u})
			ordinal = t.traverseUnion(d.Nested, child)
			if d.HasOrdinal() {
				ordinal = d.Ordinal.Value
			}
			codeOrder++
		case decl.KindGroup:
			diag.Errorf(t.rep, diag.DeclGroupOutsideUnion, d.Span, "Groups should only appear inside unions.")
		}
		if child >= 0 {
			t.link(parent, child, ordinal)
			minOrdinal = min(minOrdinal, ordinal)
		}
	}
	return minOrdinal
}

// traverseUnion walks the alternatives of a union. Every alternative gets its
// own group; a plain field is a group of one.
func (t *StructTranslator) traverseUnion(members []*decl.Decl, parent int) uint32 {
	if len(members) < 2 {
		diag.Errorf(t.rep, diag.DeclUnionTooSmall, t.members[parent].decl.Span, "Union must have at least two members.")
	}
	checkNames(members, t.rep)
	u := t.members[parent].union

	minOrdinal := uint32(noOrdinal)
	var codeOrder uint32
	for _, d := range members {
		var ordinal uint32
		child := -1
		switch d.Kind {
		case decl.KindField:
			g := t.layout.NewGroup(u)
			child = t.addMember(memberInfo{parent: parent, codeOrder: codeOrder, decl: d, kind: schema.MemberField, scope: layout.GroupScope(g)})
			ordinal = t.fieldOrdinal(d)
			codeOrder++
		case decl.KindUnion:
			diag.Errorf(t.rep, diag.DeclUnionInUnion, d.Span, "Unions cannot contain unions.")
		case decl.KindGroup:
			g := t.layout.NewGroup(u)
			child = t.addMember(memberInfo{parent: parent, codeOrder: codeOrder, decl: d, kind: schema.MemberGroup, scope: layout.GroupScope(g)})
			ordinal = t.traverseGroup(d.Nested, child)
			codeOrder++
		}
		if child >= 0 {
			t.link(parent, child, ordinal)
			minOrdinal = min(minOrdinal, ordinal)
		}
	}
	return minOrdinal
}

func (t *StructTranslator) fieldOrdinal(d *decl.Decl) uint32 {
	if d.HasOrdinal() {
		return d.Ordinal.Value
	}
	diag.Errorf(t.rep, diag.DeclMissingOrdinal, d.Name.Span, "Field '%s' needs an ordinal.", d.Name.Value)
	return noOrdinal
}

// materialize builds the schema member tree below idx in declaration order
// and points each memberInfo at its slot. Slices are sized up front so the
// slots never move.
func (t *StructTranslator) materialize(idx int) []schema.Member {
	children := t.members[idx].children
	out := make([]schema.Member, len(children))
	for i, c := range children {
		m := &t.members[c]
		slot := &out[i]
		slot.Name = m.decl.Name.Value
		slot.CodeOrder = m.codeOrder
		slot.Kind = m.kind
		switch m.kind {
		case schema.MemberField:
			slot.Field = &schema.Field{}
		case schema.MemberUnion:
			slot.Union = &schema.Union{Members: t.materialize(c)}
		case schema.MemberGroup:
			slot.Group = &schema.Group{Members: t.materialize(c)}
		}
		m.out = slot
	}
	return out
}

func (t *StructTranslator) translateField(m *memberInfo) {
	d := m.decl
	field := m.out.Field
	if d.Type == nil {
		diag.Errorf(t.rep, diag.TypeUnresolved, d.Name.Span, "Field '%s' has no type.", d.Name.Value)
		return
	}
	typ, ok := t.resolver.ResolveType(d.Type, t.rep)
	field.Type = typ
	if !ok {
		return
	}
	field.Default = t.values.CompileDefault(d.Default, typ, t.rep)

	switch lg := typ.Kind.LgSize(); lg {
	case schema.LgSizePointer:
		field.Offset = t.layout.AddPointer(m.scope)
	case schema.LgSizeVoid:
		t.layout.AddVoid(m.scope)
		field.Offset = 0
	default:
		field.Offset = t.layout.AddData(m.scope, uint8(lg))
	}
}

func (t *StructTranslator) sectionSize(structDecl *decl.Decl, section string, n uint32) uint16 {
	size, err := safecast.Conv[uint16](n)
	if err != nil {
		diag.Errorf(t.rep, diag.LayoutTooLarge, structDecl.Name.Span,
			"Struct '%s' has a %s section of %d, more than %d allowed.", structDecl.Name.Value, section, n, math.MaxUint16)
		return math.MaxUint16
	}
	return size
}

// preferredListEncoding picks the most compact element size a list of this
// struct could use.
func preferredListEncoding(top *layout.Top) schema.ElementSize {
	switch {
	case top.PointerCount == 0 && top.DataWordCount == 0:
		return schema.ElementEmpty
	case top.PointerCount == 0 && top.DataWordCount == 1:
		switch used := top.Holes.FirstWordUsed(); used {
		case 0:
			return schema.ElementBit
		case 1, 2, 3:
			return schema.ElementByte
		case 4:
			return schema.ElementTwoBytes
		case 5:
			return schema.ElementFourBytes
		case 6:
			return schema.ElementEightBytes
		default:
			panic(fmt.Sprintf("first word usage out of range: %d", used))
		}
	case top.PointerCount == 1 && top.DataWordCount == 0:
		return schema.ElementPointer
	default:
		return schema.ElementInlineComposite
	}
}
