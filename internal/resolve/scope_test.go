package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/schema"
	"schemac/internal/source"
)

func named(kind decl.Kind, name string, nested ...*decl.Decl) *decl.Decl {
	return &decl.Decl{Kind: kind, Name: decl.Located[string]{Value: name}, Nested: nested}
}

func testScope() *Scope {
	return FromFiles(&decl.File{Decls: []*decl.Decl{
		named(decl.KindStruct, "Person",
			named(decl.KindEnum, "Role",
				named(decl.KindEnumerant, "admin"),
				named(decl.KindEnumerant, "guest"),
			),
		),
		named(decl.KindConst, "answer"),
		named(decl.KindInterface, "Service"),
	}})
}

func mustType(t *testing.T, text string) *decl.TypeExpr {
	t.Helper()
	expr, err := decl.ParseTypeExpr(text, source.Span{})
	if err != nil {
		t.Fatalf("ParseTypeExpr(%q): %v", text, err)
	}
	return expr
}

func TestResolveBuiltins(t *testing.T) {
	s := testScope()
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}

	got, ok := s.ResolveType(mustType(t, "List(List(UInt8))"), rep)
	if !ok {
		t.Fatalf("unexpected failure: %+v", bag.Items())
	}
	inner := schema.Type{Kind: schema.TypeUInt8}
	mid := schema.Type{Kind: schema.TypeList, Elem: &inner}
	want := schema.Type{Kind: schema.TypeList, Elem: &mid}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("type mismatch (-want +got):\n%s", diff)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestResolveDeclaredNames(t *testing.T) {
	s := testScope()
	rep := diag.BagReporter{Bag: diag.NewBag(16)}

	got, ok := s.ResolveType(mustType(t, "Person.Role"), rep)
	if !ok || got.Kind != schema.TypeEnum || got.ID != NodeID("Person.Role") {
		t.Fatalf("Person.Role = %+v, %v", got, ok)
	}
	if ord, ok := s.Enumerant(got.ID, "guest"); !ok || ord != 1 {
		t.Fatalf("Enumerant(guest) = %d, %v; want 1, true", ord, ok)
	}
	if got, ok := s.ResolveType(mustType(t, "Service"), rep); !ok || got.Kind != schema.TypeInterface {
		t.Fatalf("Service = %+v, %v", got, ok)
	}
	if _, ok := s.Constant([]string{"answer"}); !ok {
		t.Fatalf("answer should be a constant")
	}
	if _, ok := s.Constant([]string{"Person"}); ok {
		t.Fatalf("Person is not a constant")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		text string
		code diag.Code
		msg  string
	}{
		{"List", diag.TypeListParams, "'List' requires exactly one parameter."},
		{"List(Text, Data)", diag.TypeListParams, "'List' requires exactly one parameter."},
		{"Text(Data)", diag.TypeBadParams, "'Text' does not accept parameters."},
		{"Person(Text)", diag.TypeBadParams, "'Person' does not accept parameters."},
		{"answer", diag.TypeNotAType, "'answer' is not a type."},
		{"Missing", diag.TypeUnresolved, "'Missing' is not defined."},
	}
	s := testScope()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			bag := diag.NewBag(16)
			if _, ok := s.ResolveType(mustType(t, tt.text), diag.BagReporter{Bag: bag}); ok {
				t.Fatalf("expected failure")
			}
			items := bag.Items()
			if len(items) != 1 || items[0].Code != tt.code || items[0].Message != tt.msg {
				t.Fatalf("diagnostics = %+v, want one %v %q", items, tt.code, tt.msg)
			}
		})
	}
}

func TestNodeIDIsStableAndNonZero(t *testing.T) {
	if NodeID("a.b") != NodeID("a.b") {
		t.Fatalf("NodeID must be deterministic")
	}
	if NodeID("") == 0 || NodeID("a") == NodeID("b") {
		t.Fatalf("NodeID collision or zero")
	}
}

func TestRedeclarationKeepsFirstOwner(t *testing.T) {
	first := named(decl.KindStruct, "P", named(decl.KindEnum, "Kind"))
	second := named(decl.KindStruct, "P", named(decl.KindEnum, "Kind"))
	s := FromFiles(
		&decl.File{ID: 0, Decls: []*decl.Decl{first}},
		&decl.File{ID: 1, Decls: []*decl.Decl{second}},
	)

	if !s.Owns("P", first) || s.Owns("P", second) {
		t.Fatalf("P should be owned by the first declaration")
	}
	if !s.Owns("P.Kind", first.Nested[0]) || s.Owns("P.Kind", second.Nested[0]) {
		t.Fatalf("nested names of the loser must not be declared")
	}
	redecls := s.Redeclarations()
	if len(redecls) != 1 {
		t.Fatalf("redeclarations = %+v, want only P", redecls)
	}
	if r := redecls[0]; r.Name != "P" || r.Decl != second || r.Prev != first {
		t.Fatalf("redeclaration = %+v", r)
	}
}
