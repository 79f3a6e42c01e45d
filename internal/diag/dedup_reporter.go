package diag

import "schemac/internal/source"

// reportKey identifies a diagnostic for deduplication. The first note takes
// part: the same message at the same place may point back at different
// originals (a duplicate ordinal seen twice), and those are separate errors.
type reportKey struct {
	code    Code
	sev     Severity
	primary source.Span
	note    source.Span
	hasNote bool
	msg     string
}

// DedupReporter forwards each distinct diagnostic to next once.
//
// A DedupReporter is not safe for concurrent use; the driver gives every
// struct its own.
type DedupReporter struct {
	next       Reporter
	seen       map[reportKey]struct{}
	suppressed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[reportKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := reportKey{code: code, sev: sev, primary: primary, msg: msg}
	if len(notes) > 0 {
		key.note, key.hasNote = notes[0].Span, true
	}
	if _, ok := r.seen[key]; ok {
		r.suppressed++
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed returns how many reports were dropped as repeats.
func (r *DedupReporter) Suppressed() int {
	if r == nil {
		return 0
	}
	return r.suppressed
}
