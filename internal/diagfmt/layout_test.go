package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"schemac/internal/schema"
)

func sampleNodes() []schema.Node {
	return []schema.Node{
		{
			ID:          0x8000000000000001,
			DisplayName: "Person",
			Struct: &schema.StructNode{
				DataWordCount:         1,
				PointerCount:          1,
				PreferredListEncoding: schema.ElementInlineComposite,
				Members: []schema.Member{
					{Name: "name", Ordinal: 0, Kind: schema.MemberField, Field: &schema.Field{
						Type: schema.Type{Kind: schema.TypeText}, Offset: 0,
					}},
					{Name: "age", Ordinal: 1, CodeOrder: 1, Kind: schema.MemberField, Field: &schema.Field{
						Type:    schema.Type{Kind: schema.TypeUInt8},
						Default: schema.Value{Kind: schema.TypeUInt8, Uint: 18},
						Offset:  0,
					}},
					{Name: "contact", CodeOrder: 2, Kind: schema.MemberUnion, Union: &schema.Union{
						DiscriminantOffset: 1,
						Members: []schema.Member{
							{Name: "none", Ordinal: 2, Kind: schema.MemberField, Field: &schema.Field{Type: schema.Type{Kind: schema.TypeVoid}}},
							{Name: "phone", Ordinal: 3, CodeOrder: 1, Kind: schema.MemberField, Field: &schema.Field{
								Type: schema.Type{Kind: schema.TypeUInt32}, Offset: 1,
							}},
						},
					}},
				},
			},
		},
		{
			ID:          0x8000000000000002,
			DisplayName: "Color",
			Enum: &schema.EnumNode{Enumerants: []schema.Enumerant{
				{Name: "red", Ordinal: 0},
				{Name: "green", Ordinal: 1, CodeOrder: 1},
			}},
		},
	}
}

func TestLayoutPretty(t *testing.T) {
	var buf bytes.Buffer
	Layout(&buf, sampleNodes(), LayoutOpts{ShowOffsets: true})
	out := buf.String()
	for _, want := range []string{
		"struct Person (1 word, 1 pointer, list inlineComposite)\n",
		"  name     @0  Text    ptr[0]\n",
		"  age      @1  UInt8   data[0] bits 0..8 = 18\n",
		"  contact      union   tag bits 16..32\n",
		"    none   @2  Void    void\n",
		"    phone  @3  UInt32  data[1] bits 32..64\n",
		"enum Color\n  red = 0\n  green = 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLayoutJSONView(t *testing.T) {
	out := BuildLayoutOutput(sampleNodes())
	if len(out) != 2 {
		t.Fatalf("nodes = %d", len(out))
	}
	person := out[0]
	if person.Kind != "struct" || person.ID != "0x8000000000000001" || person.ListEncoding != "inlineComposite" {
		t.Fatalf("person = %+v", person)
	}
	contact := person.Members[2]
	if contact.Discriminant == nil || *contact.Discriminant != 1 {
		t.Fatalf("contact = %+v", contact)
	}
	none := contact.Members[0]
	if none.Section != "void" || none.Offset != nil {
		t.Fatalf("void member = %+v", none)
	}
	age := person.Members[1]
	if age.Section != "data" || age.Default != "18" || *age.Offset != 0 {
		t.Fatalf("age = %+v", age)
	}

	var buf bytes.Buffer
	if err := LayoutJSON(&buf, sampleNodes()); err != nil {
		t.Fatal(err)
	}
	enumNames := []string{}
	for _, e := range out[1].Enumerants {
		enumNames = append(enumNames, e.Name)
	}
	if diff := cmp.Diff([]string{"red", "green"}, enumNames); diff != "" {
		t.Fatalf("enumerants (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `"discriminantOffset": 1`) {
		t.Fatalf("discriminant missing from JSON:\n%s", buf.String())
	}
}
