package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"schemac/internal/diag"
	"schemac/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	code, path      *color.Color
	caret, note     *color.Color
	gutter          *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		path:   color.New(color.Bold),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
	}
	// Явно, чтобы не зависеть от глобального color.NoColor.
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.caret, p.note, p.gutter} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	items := bag.Items()
	shown := len(items)
	if opts.Max > 0 && opts.Max < shown {
		shown = opts.Max
	}
	for i := range shown {
		d := items[i]
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.path.Sprint(location(fs, d.Primary, opts.PathMode)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		if f := fileOf(fs, d.Primary); f != nil {
			writeSnippet(w, p, fs, f, d.Primary, int(opts.Context))
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), p.path.Sprint(location(fs, n.Span, opts.PathMode)), n.Msg)
			if f := fileOf(fs, n.Span); f != nil {
				writeSnippet(w, p, fs, f, n.Span, 0)
			}
		}
	}
	if hidden := len(items) - shown; hidden > 0 {
		fmt.Fprintf(w, "... and %d more\n", hidden)
	}
}

// Summary prints the closing "N errors, M warnings" line. Nothing is written
// for an empty bag.
func Summary(w io.Writer, bag *diag.Bag, colored bool) {
	errs, warns := bag.Count(diag.SevError), bag.Count(diag.SevWarning)
	if errs == 0 && warns == 0 {
		return
	}
	p := newPalette(colored)
	parts := make([]string, 0, 2)
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	fmt.Fprintf(w, "%s generated.\n", strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fileOf(fs, span)
	if f == nil {
		return unknownPath
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs, f, mode), start.Line, start.Col)
}

func writeSnippet(w io.Writer, p palette, fs *source.FileSet, f *source.File, span source.Span, context int) {
	start, end := fs.Resolve(span)
	lineCount := uint32(len(f.LineIdx)) + 1
	first := start.Line
	last := start.Line
	for c := 0; c < context && first > 1; c++ {
		first--
	}
	for c := 0; c < context && last < lineCount; c++ {
		last++
	}
	width := len(strconv.FormatUint(uint64(last), 10))
	pad := strings.Repeat(" ", width)

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(w, " %s %s\n", p.gutter.Sprintf("%*d |", width, ln), text)
		if ln != start.Line {
			continue
		}
		from := clampCol(start.Col, text)
		to := len(text)
		if end.Line == start.Line {
			to = max(clampCol(end.Col, text), from)
		}
		n := max(runewidth.StringWidth(text[from:to]), 1)
		fmt.Fprintf(w, " %s %s%s\n",
			p.gutter.Sprint(pad+" |"),
			visualIndent(text[:from]),
			p.caret.Sprint("^"+strings.Repeat("~", n-1)))
	}
}

// clampCol turns a 1-based column into a byte index inside text.
func clampCol(col uint32, text string) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(text))
}

// visualIndent reproduces the on-screen width of prefix, keeping tabs so the
// caret lines up however the terminal expands them.
func visualIndent(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}
