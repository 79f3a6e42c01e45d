// Package testkit holds invariant checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"schemac/internal/decl"
	"schemac/internal/schema"
	"schemac/internal/source"
)

// CheckSpanInvariants verifies that every span of a declaration tree points
// into sf and lies within its content:
// 1) Start <= End <= len(content)
// 2) the name, ordinal and type spans of a declaration lie inside its Span
func CheckSpanInvariants(f *decl.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to file %d, want %d", what, sp.File, sf.ID)
		}
		if sp.Start > sp.End || sp.End > lenContent {
			return fmt.Errorf("%s span %v outside content of %d bytes", what, sp, lenContent)
		}
		return nil
	}
	var walk func(ds []*decl.Decl) error
	walk = func(ds []*decl.Decl) error {
		for _, d := range ds {
			if err := check("decl", d.Span); err != nil {
				return err
			}
			if err := check("name", d.Name.Span); err != nil {
				return err
			}
			if !d.Span.Contains(d.Name.Span) {
				return fmt.Errorf("name span %v is outside decl span %v", d.Name.Span, d.Span)
			}
			if d.Ordinal != nil {
				if err := check("ordinal", d.Ordinal.Span); err != nil {
					return err
				}
			}
			if d.Type != nil {
				if err := check("type", d.Type.Span); err != nil {
					return err
				}
			}
			if err := walk(d.Nested); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(f.Decls)
}

// choice records that a slot lives in alternative index of a union.
type choice struct {
	union *schema.Union
	index int
}

type slot struct {
	what    string
	pointer bool
	from    uint64 // bits, or pointer index
	to      uint64
	path    []choice
}

// exclusive reports whether a and b can never be set at the same time: they
// sit in different alternatives of some common union.
func exclusive(a, b []choice) bool {
	for _, ca := range a {
		for _, cb := range b {
			if ca.union == cb.union && ca.index != cb.index {
				return true
			}
		}
	}
	return false
}

// CheckLayoutInvariants verifies a compiled struct:
// 1) every data field and discriminant lies within DataWordCount words
// 2) every pointer field lies within PointerCount slots
// 3) no two slots overlap unless they are alternatives of one union
func CheckLayoutInvariants(s *schema.StructNode) error {
	if s == nil {
		return fmt.Errorf("nil struct")
	}
	var slots []slot
	var walk func(members []schema.Member, path []choice)
	walk = func(members []schema.Member, path []choice) {
		for i := range members {
			m := &members[i]
			switch {
			case m.Field != nil:
				lg := m.Field.Type.Kind.LgSize()
				switch lg {
				case schema.LgSizeVoid:
				case schema.LgSizePointer:
					p := uint64(m.Field.Offset)
					slots = append(slots, slot{what: m.Name, pointer: true, from: p, to: p + 1, path: path})
				default:
					from := uint64(m.Field.Offset) << uint(lg)
					slots = append(slots, slot{what: m.Name, from: from, to: from + 1<<uint(lg), path: path})
				}
			case m.Union != nil:
				from := uint64(m.Union.DiscriminantOffset) << 4
				slots = append(slots, slot{what: m.Name + " discriminant", from: from, to: from + 16, path: path})
				for j := range m.Union.Members {
					alt := append(append([]choice(nil), path...), choice{union: m.Union, index: j})
					walk(m.Union.Members[j:j+1], alt)
				}
			case m.Group != nil:
				walk(m.Group.Members, path)
			}
		}
	}
	walk(s.Members, nil)

	dataBits := uint64(s.DataWordCount) * 64
	for i, a := range slots {
		limit := dataBits
		if a.pointer {
			limit = uint64(s.PointerCount)
		}
		if a.to > limit {
			return fmt.Errorf("%s [%d,%d) beyond section end %d", a.what, a.from, a.to, limit)
		}
		for _, b := range slots[i+1:] {
			if a.pointer != b.pointer || a.to <= b.from || b.to <= a.from {
				continue
			}
			if !exclusive(a.path, b.path) {
				return fmt.Errorf("%s [%d,%d) overlaps %s [%d,%d)", a.what, a.from, a.to, b.what, b.from, b.to)
			}
		}
	}
	return nil
}
