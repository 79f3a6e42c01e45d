package decl

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/safecast"
	"github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"schemac/internal/diag"
	"schemac/internal/source"
)

// Load reads a declaration document from disk into fs and converts it.
func Load(fs *source.FileSet, path string, rep diag.Reporter) (*File, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return Parse(fs, id, rep)
}

// Parse converts an already loaded document. The format is chosen by file
// extension: .json is JSON, everything else is YAML.
//
// Problems inside an otherwise well-formed document (unknown keys, bad
// ordinals, malformed type expressions) are reported through rep and the
// offending declaration is dropped; only undecodable input is returned as an
// error.
func Parse(fs *source.FileSet, id source.FileID, rep diag.Reporter) (*File, error) {
	f := fs.Get(id)
	c := &converter{file: f, rep: rep}
	var root *yaml.Node
	if strings.EqualFold(filepath.Ext(f.Path), ".json") {
		n, spans, err := decodeJSON(f.Content, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		root = n
		c.spans = spans
		c.json = true
	} else {
		var doc yaml.Node
		if err := yaml.Unmarshal(f.Content, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		root = &doc
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return &File{Path: f.Path, ID: id}, nil
		}
		root = root.Content[0]
	}

	out := &File{Path: f.Path, ID: id}
	switch root.Kind {
	case yaml.SequenceNode:
		out.Decls = c.decls(root)
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			switch key.Value {
			case "declarations":
				out.Decls = c.decls(val)
			case "file":
			default:
				c.errorf(key, "unknown top-level key %q", key.Value)
			}
		}
	default:
		c.errorf(root, "document must be a mapping or a list of declarations")
	}
	return out, nil
}

type converter struct {
	file *source.File
	rep  diag.Reporter

	// JSON nodes carry no line/column; their byte spans are recorded here.
	spans map[*yaml.Node]source.Span
	json  bool
}

func (c *converter) errorf(n *yaml.Node, format string, args ...any) {
	diag.Errorf(c.rep, diag.IODecodeError, c.span(n), format, args...)
}

func (c *converter) span(n *yaml.Node) source.Span {
	if sp, ok := c.spans[n]; ok {
		return sp
	}
	sp := source.Span{File: c.file.ID}
	if n == nil || n.Line <= 0 {
		return sp
	}
	line, err := safecast.Conv[uint32](n.Line)
	if err != nil {
		return sp
	}
	col, err := safecast.Conv[uint32](n.Column)
	if err != nil {
		return sp
	}
	sp.Start = c.file.Offset(source.LineCol{Line: line, Col: col})
	sp.End = sp.Start
	if n.Kind == yaml.ScalarNode {
		width := len(n.Value)
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			width += 2
		}
		w, err := safecast.Conv[uint32](width)
		if err == nil {
			sp.End = c.file.Offset(source.LineCol{Line: line, Col: col + w})
		}
	}
	return sp
}

func (c *converter) decls(seq *yaml.Node) []*Decl {
	if seq.Kind != yaml.SequenceNode {
		c.errorf(seq, "expected a list of declarations")
		return nil
	}
	out := make([]*Decl, 0, len(seq.Content))
	for _, item := range seq.Content {
		if d := c.decl(item); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func (c *converter) decl(m *yaml.Node) *Decl {
	if m.Kind != yaml.MappingNode {
		c.errorf(m, "declaration must be a mapping")
		return nil
	}
	d := &Decl{}
	hasKind := false
	ok := true
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		switch key.Value {
		case "ordinal":
			n, err := strconv.ParseUint(val.Value, 10, 32)
			if err != nil || val.Kind != yaml.ScalarNode {
				c.errorf(val, "invalid ordinal %q", val.Value)
				ok = false
				continue
			}
			d.Ordinal = &Located[uint32]{Value: uint32(n), Span: c.span(val)}
		case "type":
			expr, err := ParseTypeExpr(val.Value, c.span(val))
			if err != nil {
				c.errorf(val, "invalid type: %v", err)
				ok = false
				continue
			}
			d.Type = expr
		case "default", "value":
			v := c.value(val)
			if v == nil {
				ok = false
				continue
			}
			d.Default = v
		case "members":
			d.Nested = c.decls(val)
		default:
			kind, known := KindByName(key.Value)
			if !known {
				c.errorf(key, "unknown key %q", key.Value)
				continue
			}
			if hasKind {
				c.errorf(key, "declaration is both a %s and a %s", d.Kind, kind)
				ok = false
				continue
			}
			hasKind = true
			d.Kind = kind
			d.Name = Located[string]{Value: norm.NFC.String(val.Value), Span: c.span(val)}
		}
	}
	if !hasKind {
		c.errorf(m, "declaration has no kind (struct, field, union, group, ...)")
		return nil
	}
	if !ok {
		return nil
	}
	d.Span = c.span(m).Cover(d.Name.Span)
	return d
}

func (c *converter) value(n *yaml.Node) *ValueExpr {
	sp := c.span(n)
	if n.Kind == yaml.MappingNode {
		if len(n.Content) == 2 && n.Content[0].Value == "const" {
			return &ValueExpr{Kind: ValueName, Name: SplitName(n.Content[1].Value), Span: c.span(n.Content[1])}
		}
		c.errorf(n, "unsupported default value; use a scalar or {const: Name}")
		return nil
	}
	if n.Kind != yaml.ScalarNode {
		c.errorf(n, "unsupported default value")
		return nil
	}
	switch n.Tag {
	case "!!int":
		text := strings.ReplaceAll(n.Value, "_", "")
		kind := ValuePositiveInt
		if strings.HasPrefix(text, "-") {
			kind = ValueNegativeInt
			text = text[1:]
		}
		text = strings.TrimPrefix(text, "+")
		u, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			c.errorf(n, "integer %s does not fit in 64 bits", n.Value)
			return nil
		}
		return &ValueExpr{Kind: kind, Uint: u, Span: sp}
	case "!!float":
		switch strings.ToLower(n.Value) {
		case ".nan":
			return &ValueExpr{Kind: ValueName, Name: []string{"nan"}, Span: sp}
		case ".inf", "+.inf":
			return &ValueExpr{Kind: ValueName, Name: []string{"inf"}, Span: sp}
		case "-.inf":
			return &ValueExpr{Kind: ValueFloat, Float: math.Inf(-1), Span: sp}
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			c.errorf(n, "invalid float %q", n.Value)
			return nil
		}
		return &ValueExpr{Kind: ValueFloat, Float: f, Span: sp}
	case "!!bool":
		return &ValueExpr{Kind: ValueName, Name: []string{strings.ToLower(n.Value)}, Span: sp}
	case "!!null":
		return &ValueExpr{Kind: ValueName, Name: []string{"void"}, Span: sp}
	}
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		v := &ValueExpr{Kind: ValueString, Text: n.Value, Span: sp}
		// JSON has no bare names: a string that reads as one may also mean it.
		if c.json && isNamePath(n.Value) {
			v.Name = SplitName(n.Value)
		}
		return v
	}
	return &ValueExpr{Kind: ValueName, Name: SplitName(n.Value), Span: sp}
}

// isNamePath reports whether s is a dotted identifier such as Color.red.
func isNamePath(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
				return false
			}
		}
	}
	return true
}

// decodeJSON turns a JSON document into the same node tree the YAML decoder
// produces, together with the byte span of every node.
func decodeJSON(content []byte, file source.FileID) (*yaml.Node, map[*yaml.Node]source.Span, error) {
	// Full decode first: the token stream below does not check the grammar.
	var v any
	if err := json.NewDecoder(bytes.NewReader(content)).Decode(&v); err != nil {
		return nil, nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	t := &jsonTree{dec: dec, src: content, file: file, spans: make(map[*yaml.Node]source.Span)}
	root, err := t.value()
	if err != nil {
		return nil, nil, err
	}
	return root, t.spans, nil
}

// jsonTree walks the token stream of a JSON document. It keeps its own
// cursor into src because escaped strings make the decoder's offsets drift.
type jsonTree struct {
	dec   *json.Decoder
	src   []byte
	pos   int // just past the last token
	file  source.FileID
	spans map[*yaml.Node]source.Span
}

func (t *jsonTree) next() (json.Token, int, error) {
	tok, err := t.dec.Token()
	if err != nil {
		return nil, 0, err
	}
	start := t.pos
	for start < len(t.src) {
		switch t.src[start] {
		case ' ', '\t', '\r', '\n', ',', ':':
			start++
			continue
		}
		break
	}
	t.pos = t.tokenEnd(start, tok)
	return tok, start, nil
}

func (t *jsonTree) tokenEnd(start int, tok json.Token) int {
	switch v := tok.(type) {
	case json.Delim:
		return start + 1
	case json.Number:
		return start + len(v)
	case bool:
		if v {
			return start + len("true")
		}
		return start + len("false")
	case nil:
		return start + len("null")
	case string:
		i := start + 1
		for i < len(t.src) && t.src[i] != '"' {
			if t.src[i] == '\\' {
				i++
			}
			i++
		}
		return min(i+1, len(t.src))
	}
	return start
}

func (t *jsonTree) mark(n *yaml.Node, start int) *yaml.Node {
	sp := source.Span{File: t.file}
	if s, err := safecast.Conv[uint32](start); err == nil {
		sp.Start = s
	}
	if e, err := safecast.Conv[uint32](t.pos); err == nil {
		sp.End = e
	}
	t.spans[n] = sp
	return n
}

func (t *jsonTree) value() (*yaml.Node, error) {
	tok, start, err := t.next()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for t.dec.More() {
				key, err := t.value()
				if err != nil {
					return nil, err
				}
				val, err := t.value()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, key, val)
			}
			if _, _, err := t.next(); err != nil {
				return nil, err
			}
			return t.mark(n, start), nil
		case '[':
			n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for t.dec.More() {
				item, err := t.value()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, item)
			}
			if _, _, err := t.next(); err != nil {
				return nil, err
			}
			return t.mark(n, start), nil
		}
		return nil, fmt.Errorf("unexpected %q at offset %d", rune(v), start)
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(v.String(), ".eE") {
			tag = "!!float"
		}
		return t.mark(&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, start), nil
	case string:
		return t.mark(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}, start), nil
	case bool:
		return t.mark(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, start), nil
	default:
		return t.mark(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, start), nil
	}
}
