package translate

import (
	"testing"

	"schemac/internal/decl"
	"schemac/internal/testkit"
)

// Mixed sizes, nested unions and late discriminants must never produce two
// simultaneously settable fields in the same bits.
func TestLayoutsKeepFieldsApart(t *testing.T) {
	b := &declBuilder{}
	cases := map[string][]*decl.Decl{
		"mixed widths": {
			b.field(t, "a", 0, "Bool"),
			b.field(t, "b", 1, "UInt64"),
			b.field(t, "c", 2, "Int8"),
			b.field(t, "d", 3, "Float32"),
			b.field(t, "e", 4, "Int16"),
			b.field(t, "f", 5, "Bool"),
		},
		"union growing in place": {
			b.field(t, "a", 0, "UInt8"),
			b.union("u",
				b.field(t, "b", 1, "Bool"),
				b.field(t, "c", 2, "UInt16"),
				b.field(t, "d", 3, "UInt64"),
				b.field(t, "e", 5, "Text"),
			),
			b.field(t, "f", 4, "UInt32"),
		},
		"groups with holes": {
			b.union("u",
				b.group("g1",
					b.field(t, "a", 0, "Bool"),
					b.field(t, "b", 2, "UInt32"),
					b.field(t, "c", 4, "UInt8"),
				),
				b.group("g2",
					b.field(t, "d", 1, "UInt16"),
					b.field(t, "e", 3, "Int64"),
					b.union("inner",
						b.field(t, "f", 5, "Bool"),
						b.field(t, "g", 6, "Data"),
					),
				),
			),
			b.field(t, "h", 7, "Int32"),
		},
	}
	for name, members := range cases {
		t.Run(name, func(t *testing.T) {
			node, bag := translateMembers(t, members...)
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			if err := testkit.CheckLayoutInvariants(node); err != nil {
				t.Fatal(err)
			}
		})
	}
}
