package decl

import (
	"testing"

	"schemac/internal/source"
)

func TestParseTypeExpr(t *testing.T) {
	tests := []struct {
		text    string
		want    string
		wantErr bool
	}{
		{text: "UInt8", want: "UInt8"},
		{text: "foo.Bar", want: "foo.Bar"},
		{text: "List(Text)", want: "List(Text)"},
		{text: "List( List(foo.Bar) )", want: "List(List(foo.Bar))"},
		{text: "Map(Text, Int32)", want: "Map(Text, Int32)"},
		{text: "", wantErr: true},
		{text: "List(", wantErr: true},
		{text: "List(Text))", wantErr: true},
		{text: "9lives", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseTypeExpr(tt.text, source.Span{})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseTypeExprSpans(t *testing.T) {
	base := source.Span{File: 1, Start: 100, End: 110}
	expr, err := ParseTypeExpr("List(Text)", base)
	if err != nil {
		t.Fatal(err)
	}
	if expr.Span != base {
		t.Fatalf("outer span = %v, want %v", expr.Span, base)
	}
	inner := expr.Params[0].Span
	if inner.Start != 105 || inner.End != 109 {
		t.Fatalf("inner span = %v, want 105..109", inner)
	}
}

func TestParseTypeExprKeepsBaseWhenLengthsDiffer(t *testing.T) {
	base := source.Span{File: 1, Start: 0, End: 0}
	expr, err := ParseTypeExpr("List(Text)", base)
	if err != nil {
		t.Fatal(err)
	}
	if expr.Params[0].Span != base {
		t.Fatalf("inner span = %v, want base %v", expr.Params[0].Span, base)
	}
}
