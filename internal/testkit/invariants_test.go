package testkit

import (
	"strings"
	"testing"

	"schemac/internal/decl"
	"schemac/internal/schema"
	"schemac/internal/source"
)

func field(name string, kind schema.TypeKind, offset uint32) schema.Member {
	return schema.Member{Name: name, Kind: schema.MemberField, Field: &schema.Field{Type: schema.Type{Kind: kind}, Offset: offset}}
}

func TestCheckLayoutInvariants(t *testing.T) {
	union := func(members ...schema.Member) schema.Member {
		return schema.Member{Name: "u", Kind: schema.MemberUnion, Union: &schema.Union{DiscriminantOffset: 1, Members: members}}
	}
	tests := []struct {
		name    string
		node    schema.StructNode
		wantErr string
	}{
		{
			name: "union alternatives share storage",
			node: schema.StructNode{DataWordCount: 1, PointerCount: 1, Members: []schema.Member{
				field("a", schema.TypeBool, 0),
				union(field("b", schema.TypeUInt32, 1), field("c", schema.TypeUInt8, 4), field("d", schema.TypeText, 0)),
			}},
		},
		{
			name: "plain fields overlap",
			node: schema.StructNode{DataWordCount: 1, Members: []schema.Member{
				field("a", schema.TypeUInt16, 0),
				field("b", schema.TypeUInt8, 1),
			}},
			wantErr: "a [0,16) overlaps b [8,16)",
		},
		{
			name: "field overlaps discriminant",
			node: schema.StructNode{DataWordCount: 1, Members: []schema.Member{
				field("a", schema.TypeUInt32, 0),
				union(field("b", schema.TypeBool, 40), field("c", schema.TypeBool, 41)),
			}},
			wantErr: "a [0,32) overlaps u discriminant [16,32)",
		},
		{
			name: "data beyond section",
			node: schema.StructNode{DataWordCount: 1, Members: []schema.Member{
				field("a", schema.TypeUInt64, 1),
			}},
			wantErr: "beyond section end 64",
		},
		{
			name: "pointer beyond section",
			node: schema.StructNode{PointerCount: 1, Members: []schema.Member{
				field("a", schema.TypeText, 1),
			}},
			wantErr: "beyond section end 1",
		},
		{
			name: "void takes no space",
			node: schema.StructNode{Members: []schema.Member{field("v", schema.TypeVoid, 0)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLayoutInvariants(&tt.node)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("doc.yaml", []byte("- struct: S\n"))
	sf := fs.Get(id)

	good := &decl.File{ID: id, Decls: []*decl.Decl{{
		Kind: decl.KindStruct,
		Name: decl.Located[string]{Value: "S", Span: source.Span{File: id, Start: 10, End: 11}},
		Span: source.Span{File: id, Start: 2, End: 11},
	}}}
	if err := CheckSpanInvariants(good, sf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &decl.File{ID: id, Decls: []*decl.Decl{{
		Kind: decl.KindStruct,
		Name: decl.Located[string]{Value: "S", Span: source.Span{File: id, Start: 10, End: 40}},
		Span: source.Span{File: id, Start: 2, End: 11},
	}}}
	if err := CheckSpanInvariants(bad, sf); err == nil {
		t.Fatalf("expected an out-of-bounds error")
	}
}
