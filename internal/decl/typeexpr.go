package decl

import (
	"fmt"
	"strings"
	"unicode"

	"schemac/internal/source"
)

// ParseTypeExpr parses the textual form of a type reference: a dotted name
// optionally followed by a parenthesized, comma separated parameter list.
// base is the span of the whole text; nested spans are derived from it.
func ParseTypeExpr(text string, base source.Span) (*TypeExpr, error) {
	p := typeParser{src: text, base: base}
	expr, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q after type %s", p.src[p.pos:], expr)
	}
	return expr, nil
}

type typeParser struct {
	src  string
	pos  int
	base source.Span
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) span(start, end int) source.Span {
	sp := p.base
	if sp.Len() != uint32(len(p.src)) {
		// span does not match the text byte for byte (e.g. JSON input)
		return sp
	}
	sp.Start = p.base.Start + uint32(start)
	sp.End = p.base.Start + uint32(end)
	return sp
}

func (p *typeParser) ident() (string, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		if p.pos == len(p.src) {
			return "", fmt.Errorf("expected type name at end of %q", p.src)
		}
		return "", fmt.Errorf("expected type name at %q", p.src[p.pos:])
	}
	return p.src[start:p.pos], nil
}

func (p *typeParser) parse() (*TypeExpr, error) {
	p.skipSpace()
	start := p.pos
	var name []string
	for {
		part, err := p.ident()
		if err != nil {
			return nil, err
		}
		name = append(name, part)
		if p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
			continue
		}
		break
	}
	expr := &TypeExpr{Name: name}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		for {
			param, err := p.parse()
			if err != nil {
				return nil, err
			}
			expr.Params = append(expr.Params, param)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("unclosed '(' in %q", p.src)
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("unexpected %q in parameter list", p.src[p.pos:])
		}
	}
	expr.Span = p.span(start, p.pos)
	return expr, nil
}

// SplitName splits a dotted identifier.
func SplitName(s string) []string {
	return strings.Split(strings.TrimSpace(s), ".")
}
