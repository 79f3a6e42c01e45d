package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"schemac/internal/diag"
	"schemac/internal/schema"
)

const personDoc = `declarations:
  - struct: Person
    members:
      - field: name
        ordinal: 0
        type: Text
      - field: age
        ordinal: 1
        type: UInt8
        default: 18
      - union: contact
        members:
          - field: email
            ordinal: 2
            type: Text
          - field: phone
            ordinal: 3
            type: UInt64
      - enum: Kind
        members:
          - enumerant: friend
          - enumerant: colleague
  - enum: Color
    members:
      - enumerant: red
        ordinal: 0
      - enumerant: green
        ordinal: 1
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func findNode(t *testing.T, res *Result, name string) NodeResult {
	t.Helper()
	for _, n := range res.Nodes {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("node %q not compiled; have %+v", name, res.Nodes)
	return NodeResult{}
}

func TestCompileLaysOutStructs(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "person.yaml", personDoc)

	res, err := Compile(context.Background(), []string{path}, Options{BaseDir: dir, Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if len(res.Nodes) != 3 {
		t.Fatalf("nodes = %d, want Person, Person.Kind and Color", len(res.Nodes))
	}

	person := findNode(t, res, "Person").Node.Struct
	if person.DataWordCount != 2 || person.PointerCount != 2 {
		t.Fatalf("Person sections = %d/%d, want 2/2", person.DataWordCount, person.PointerCount)
	}
	if got := person.Find("contact", "phone").Field.Offset; got != 1 {
		t.Fatalf("phone offset = %d, want 1", got)
	}
	if got := person.Find("age").Field.Default.Uint; got != 18 {
		t.Fatalf("age default = %d, want 18", got)
	}
	if person.PreferredListEncoding != schema.ElementInlineComposite {
		t.Fatalf("encoding = %v", person.PreferredListEncoding)
	}

	kind := findNode(t, res, "Person.Kind").Node.Enum
	if len(kind.Enumerants) != 2 || kind.Enumerants[1].Name != "colleague" {
		t.Fatalf("Person.Kind = %+v", kind)
	}
}

func TestCompileReportsLoadErrorsAndContinues(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.yaml", personDoc)
	missing := filepath.Join(dir, "missing.yaml")

	res, err := Compile(context.Background(), []string{missing, good}, Options{BaseDir: dir})
	if err == nil {
		t.Fatalf("expected a load error")
	}
	if len(res.Files) != 1 || len(res.Nodes) != 3 {
		t.Fatalf("files=%d nodes=%d, want the good file compiled", len(res.Files), len(res.Nodes))
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.IOLoadFileError {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing %v diagnostic: %+v", diag.IOLoadFileError, res.Bag.Items())
	}
}

func TestCompileUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "person.yaml", personDoc)
	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{BaseDir: dir, Cache: cache}

	first, err := Compile(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compile(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range second.Nodes {
		if !n.Cached {
			t.Fatalf("node %s was recompiled", n.Name)
		}
		if n.Node.ID != first.Nodes[i].Node.ID {
			t.Fatalf("cached node %s has a different id", n.Name)
		}
	}
	if got := findNode(t, second, "Person").Node.Struct.DataWordCount; got != 2 {
		t.Fatalf("cached DataWordCount = %d, want 2", got)
	}
}

func TestCompileReportsPlacementErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "bad.yaml", `declarations:
  - struct: S
    members:
      - enumerant: oops
      - field: a
        ordinal: 0
        type: Bool
`)
	res, err := Compile(context.Background(), []string{path}, Options{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.DeclEnumerantMisplaced {
		t.Fatalf("diagnostics = %+v", items)
	}
	if items[0].Primary.File != res.Files[0].ID {
		t.Fatalf("diagnostic should point into the document")
	}
}

func TestCompileReportsNameDeclaredInTwoFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.yaml", `declarations:
  - struct: P
    members:
      - field: x
        ordinal: 0
        type: Text
`)
	b := writeDoc(t, dir, "b.yaml", `declarations:
  - struct: P
    members:
      - field: y
        ordinal: 0
        type: UInt64
      - field: z
        ordinal: 1
        type: UInt64
`)
	cache, err := OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{BaseDir: dir, Cache: cache}

	// The second run reads the cache; it must not change the outcome.
	for run := 0; run < 2; run++ {
		res, err := Compile(context.Background(), []string{a, b}, opts)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Nodes) != 1 {
			t.Fatalf("run %d: nodes = %+v, want only the first P", run, res.Nodes)
		}
		p := res.Nodes[0]
		if p.File != res.Files[0].ID || p.Node.Struct.Find("x") == nil || p.Node.Struct.Find("y") != nil {
			t.Fatalf("run %d: P = %+v, want the layout from a.yaml", run, p.Node.Struct)
		}

		items := res.Bag.Items()
		if len(items) != 1 || items[0].Code != diag.DeclDuplicateName {
			t.Fatalf("run %d: diagnostics = %+v, want one duplicate name", run, items)
		}
		d := items[0]
		if d.Primary.File != res.Files[1].ID || len(d.Notes) != 1 || d.Notes[0].Span.File != res.Files[0].ID {
			t.Fatalf("run %d: duplicate should point at b.yaml with a note in a.yaml: %+v", run, d)
		}
	}
}

func TestNodeKeyDependsOnFile(t *testing.T) {
	set := Combine([32]byte{1}, [32]byte{2})
	if NodeKey(set, "a.yaml", "P") == NodeKey(set, "b.yaml", "P") {
		t.Fatalf("same name in different files must not share a cache key")
	}
	if NodeKey(set, "a.yaml", "P") != NodeKey(set, "a.yaml", "P") {
		t.Fatalf("NodeKey must be deterministic")
	}
}

func TestCompileJSONKeepsIndependentErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "contacts.json", `{"declarations": [
  {"struct": "Dup", "members": [
    {"field": "a", "ordinal": 0, "type": "Bool"},
    {"field": "b", "ordinal": 0, "type": "Bool"},
    {"field": "c", "ordinal": 1, "type": "Bool"},
    {"field": "d", "ordinal": 1, "type": "Bool"}
  ]},
  {"enum": "Kind", "members": [{"enumerant": "friend"}, {"enumerant": "colleague"}]},
  {"struct": "Contact", "members": [
    {"field": "kind", "ordinal": 0, "type": "Kind", "default": "colleague"},
    {"field": "note", "ordinal": 1, "type": "Text", "default": "colleague"}
  ]}
]}`)
	res, err := Compile(context.Background(), []string{path}, Options{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	items := res.Bag.Items()
	if len(items) != 2 {
		t.Fatalf("diagnostics = %+v, want two duplicate ordinals", items)
	}
	content := res.FileSet.Get(res.Files[0].ID).Content
	for i, want := range []string{"0", "1"} {
		d := items[i]
		if d.Code != diag.OrdDuplicate {
			t.Fatalf("diagnostic %d = %+v, want %v", i, d, diag.OrdDuplicate)
		}
		if got := string(content[d.Primary.Start:d.Primary.End]); got != want {
			t.Fatalf("diagnostic %d points at %q, want the ordinal %s", i, got, want)
		}
	}

	contact := findNode(t, res, "Contact").Node.Struct
	if got := contact.Find("kind").Field.Default; got.Kind != schema.TypeEnum || got.Uint != 1 {
		t.Fatalf("kind default = %+v, want enumerant colleague", got)
	}
	if got := contact.Find("note").Field.Default.Text; got != "colleague" {
		t.Fatalf("note default = %q, want the text", got)
	}
}
