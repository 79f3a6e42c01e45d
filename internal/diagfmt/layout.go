package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"schemac/internal/schema"
)

// Layout prints compiled nodes as an indented tree, one member per line:
//
//	struct Person (2 words, 2 pointers, list inlineComposite)
//	  name     @0  Text    ptr[0]
//	  age      @1  UInt8   data[0] bits 0..8 = 18
//	  contact  @2  union   tag bits 16..32
func Layout(w io.Writer, nodes []schema.Node, opts LayoutOpts) {
	kw := color.New(color.FgMagenta, color.Bold)
	name := color.New(color.Bold)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{kw, name, dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for i := range nodes {
		n := &nodes[i]
		id := ""
		if opts.ShowIDs {
			id = dim.Sprintf(" @0x%016x", n.ID)
		}
		switch {
		case n.Struct != nil:
			s := n.Struct
			fmt.Fprintf(w, "%s %s%s (%s, %s, list %s)\n",
				kw.Sprint("struct"), name.Sprint(n.DisplayName), id,
				plural(int(s.DataWordCount), "word"), plural(int(s.PointerCount), "pointer"),
				s.PreferredListEncoding)
			rows := layoutRows(nil, s.Members, 1, opts.ShowOffsets)
			writeRows(w, rows, dim)
		case n.Enum != nil:
			fmt.Fprintf(w, "%s %s%s\n", kw.Sprint("enum"), name.Sprint(n.DisplayName), id)
			for _, e := range n.Enum.Enumerants {
				fmt.Fprintf(w, "  %s = %d\n", e.Name, e.Ordinal)
			}
		}
	}
}

type layoutRow struct {
	indent  int
	name    string
	ordinal string
	kind    string
	where   string
}

func layoutRows(rows []layoutRow, members []schema.Member, indent int, offsets bool) []layoutRow {
	for i := range members {
		m := &members[i]
		row := layoutRow{indent: indent, name: m.Name}
		switch m.Kind {
		case schema.MemberField:
			row.ordinal = "@" + strconv.FormatUint(uint64(m.Ordinal), 10)
			if m.Field != nil {
				row.kind = m.Field.Type.String()
				row.where = fieldPlacement(m.Field, offsets)
			}
		case schema.MemberUnion:
			row.kind = "union"
			if m.Union != nil {
				tag := uint64(m.Union.DiscriminantOffset)
				row.where = fmt.Sprintf("tag bits %d..%d", tag*16, tag*16+16)
			}
		case schema.MemberGroup:
			row.kind = "group"
		}
		if m.Kind != schema.MemberField && m.Ordinal != 0 {
			row.ordinal = "@" + strconv.FormatUint(uint64(m.Ordinal), 10)
		}
		rows = append(rows, row)
		rows = layoutRows(rows, m.Children(), indent+1, offsets)
	}
	return rows
}

func fieldPlacement(f *schema.Field, offsets bool) string {
	lg := f.Type.Kind.LgSize()
	var where string
	switch lg {
	case schema.LgSizeVoid:
		where = "void"
	case schema.LgSizePointer:
		where = fmt.Sprintf("ptr[%d]", f.Offset)
	default:
		where = fmt.Sprintf("data[%d]", f.Offset)
		if offsets {
			bit := uint64(f.Offset) << uint(lg)
			where += fmt.Sprintf(" bits %d..%d", bit, bit+1<<uint(lg))
		}
	}
	if d, ok := formatDefault(f.Default); ok {
		where += " = " + d
	}
	return where
}

// formatDefault renders a non-zero default; zero defaults are implicit.
func formatDefault(v schema.Value) (string, bool) {
	switch {
	case v.Bool:
		return "true", true
	case v.Int != 0:
		return strconv.FormatInt(v.Int, 10), true
	case v.Uint != 0:
		return strconv.FormatUint(v.Uint, 10), true
	case v.Float != 0:
		return strconv.FormatFloat(v.Float, 'g', -1, 64), true
	case v.Text != "":
		return strconv.Quote(v.Text), true
	case len(v.Data) > 0:
		return fmt.Sprintf("0x%x", v.Data), true
	}
	return "", false
}

func writeRows(w io.Writer, rows []layoutRow, dim *color.Color) {
	var nameW, ordW, kindW int
	for _, r := range rows {
		nameW = max(nameW, 2*r.indent+runewidth.StringWidth(r.name))
		ordW = max(ordW, len(r.ordinal))
		kindW = max(kindW, len(r.kind))
	}
	for _, r := range rows {
		lead := strings.Repeat("  ", r.indent) + r.name
		line := runewidth.FillRight(lead, nameW) + "  " +
			fmt.Sprintf("%-*s  %-*s  ", ordW, r.ordinal, kindW, r.kind) +
			dim.Sprint(r.where)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// NodeJSON is the JSON view of a compiled node. Enumerations are spelled out
// as strings, unlike the binary form.
type NodeJSON struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	DataWords    uint16          `json:"dataWordCount,omitempty"`
	Pointers     uint16          `json:"pointerCount,omitempty"`
	ListEncoding string          `json:"preferredListEncoding,omitempty"`
	Members      []MemberJSON    `json:"members,omitempty"`
	Enumerants   []EnumerantJSON `json:"enumerants,omitempty"`
}

type MemberJSON struct {
	Name         string       `json:"name"`
	Kind         string       `json:"kind"`
	Ordinal      uint32       `json:"ordinal"`
	CodeOrder    uint32       `json:"codeOrder"`
	Type         string       `json:"type,omitempty"`
	Section      string       `json:"section,omitempty"` // data | pointer | void
	Offset       *uint32      `json:"offset,omitempty"`
	Default      string       `json:"default,omitempty"`
	Discriminant *uint32      `json:"discriminantOffset,omitempty"`
	Members      []MemberJSON `json:"members,omitempty"`
}

type EnumerantJSON struct {
	Name    string `json:"name"`
	Ordinal uint32 `json:"ordinal"`
}

// BuildLayoutOutput converts nodes into their JSON view.
func BuildLayoutOutput(nodes []schema.Node) []NodeJSON {
	out := make([]NodeJSON, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		nj := NodeJSON{ID: fmt.Sprintf("0x%016x", n.ID), Name: n.DisplayName}
		switch {
		case n.Struct != nil:
			nj.Kind = "struct"
			nj.DataWords = n.Struct.DataWordCount
			nj.Pointers = n.Struct.PointerCount
			nj.ListEncoding = n.Struct.PreferredListEncoding.String()
			nj.Members = membersJSON(n.Struct.Members)
		case n.Enum != nil:
			nj.Kind = "enum"
			for _, e := range n.Enum.Enumerants {
				nj.Enumerants = append(nj.Enumerants, EnumerantJSON{Name: e.Name, Ordinal: e.Ordinal})
			}
		}
		out = append(out, nj)
	}
	return out
}

func membersJSON(members []schema.Member) []MemberJSON {
	if len(members) == 0 {
		return nil
	}
	out := make([]MemberJSON, len(members))
	for i := range members {
		m := &members[i]
		mj := MemberJSON{Name: m.Name, Kind: m.Kind.String(), Ordinal: m.Ordinal, CodeOrder: m.CodeOrder}
		switch {
		case m.Field != nil:
			mj.Type = m.Field.Type.String()
			switch m.Field.Type.Kind.LgSize() {
			case schema.LgSizeVoid:
				mj.Section = "void"
			case schema.LgSizePointer:
				mj.Section = "pointer"
			default:
				mj.Section = "data"
			}
			if mj.Section != "void" {
				off := m.Field.Offset
				mj.Offset = &off
			}
			mj.Default, _ = formatDefault(m.Field.Default)
		case m.Union != nil:
			disc := m.Union.DiscriminantOffset
			mj.Discriminant = &disc
		}
		mj.Members = membersJSON(m.Children())
		out[i] = mj
	}
	return out
}

// LayoutJSON writes nodes as an indented JSON array.
func LayoutJSON(w io.Writer, nodes []schema.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildLayoutOutput(nodes))
}
