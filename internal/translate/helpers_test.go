package translate

import (
	"testing"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/resolve"
	"schemac/internal/schema"
	"schemac/internal/source"
	"schemac/internal/values"
)

// declBuilder hands out distinct spans so diagnostics can be traced back to
// the declaration that caused them.
type declBuilder struct {
	next uint32
}

func (b *declBuilder) span() source.Span {
	b.next += 8
	return source.Span{File: 1, Start: b.next, End: b.next + 4}
}

func (b *declBuilder) name(s string) decl.Located[string] {
	return decl.Located[string]{Value: s, Span: b.span()}
}

func (b *declBuilder) ordinal(n uint32) *decl.Located[uint32] {
	return &decl.Located[uint32]{Value: n, Span: b.span()}
}

func (b *declBuilder) field(t *testing.T, name string, ord uint32, typ string) *decl.Decl {
	t.Helper()
	expr, err := decl.ParseTypeExpr(typ, source.Span{})
	if err != nil {
		t.Fatalf("ParseTypeExpr(%q): %v", typ, err)
	}
	return &decl.Decl{Kind: decl.KindField, Name: b.name(name), Ordinal: b.ordinal(ord), Type: expr, Span: b.span()}
}

func (b *declBuilder) union(name string, members ...*decl.Decl) *decl.Decl {
	return &decl.Decl{Kind: decl.KindUnion, Name: b.name(name), Nested: members, Span: b.span()}
}

func (b *declBuilder) group(name string, members ...*decl.Decl) *decl.Decl {
	return &decl.Decl{Kind: decl.KindGroup, Name: b.name(name), Nested: members, Span: b.span()}
}

func (b *declBuilder) withOrdinal(d *decl.Decl, ord uint32) *decl.Decl {
	d.Ordinal = b.ordinal(ord)
	return d
}

func translateMembers(t *testing.T, members ...*decl.Decl) (*schema.StructNode, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(64)
	tr := newTestTranslator(bag)
	out := &schema.StructNode{}
	structDecl := &decl.Decl{Kind: decl.KindStruct, Name: decl.Located[string]{Value: "S"}, Nested: members}
	if err := tr.Translate(structDecl, members, out); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	return out, bag
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func mustFind(t *testing.T, node *schema.StructNode, path ...string) *schema.Member {
	t.Helper()
	m := node.Find(path...)
	if m == nil {
		t.Fatalf("member %v not found", path)
	}
	return m
}

func newTestTranslator(bag *diag.Bag) *StructTranslator {
	scope := resolve.NewScope()
	return New(scope, values.New(scope), diag.BagReporter{Bag: bag})
}
