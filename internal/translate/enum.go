package translate

import (
	"sort"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/schema"
)

// TranslateEnum fills out with the enumerants of members in ordinal order,
// ties kept in code order. Enumerants without an explicit ordinal take their
// position among the enumerants.
func TranslateEnum(members []*decl.Decl, out *schema.EnumNode, rep diag.Reporter) {
	type entry struct {
		ordinal   decl.Located[uint32]
		codeOrder uint32
		decl      *decl.Decl
	}
	var entries []entry
	var codeOrder uint32
	for _, m := range members {
		if m.Kind != decl.KindEnumerant {
			continue
		}
		ord := decl.Located[uint32]{Value: codeOrder, Span: m.Name.Span}
		if m.HasOrdinal() {
			ord = *m.Ordinal
		}
		entries = append(entries, entry{ordinal: ord, codeOrder: codeOrder, decl: m})
		codeOrder++
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ordinal.Value < entries[j].ordinal.Value
	})

	dup := NewDuplicateOrdinalDetector(rep)
	out.Enumerants = make([]schema.Enumerant, 0, len(entries))
	for _, e := range entries {
		dup.Check(e.ordinal)
		out.Enumerants = append(out.Enumerants, schema.Enumerant{
			Name:      e.decl.Name.Value,
			Ordinal:   e.ordinal.Value,
			CodeOrder: e.codeOrder,
		})
	}
}
