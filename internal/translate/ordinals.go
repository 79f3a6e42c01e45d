package translate

import (
	"fmt"

	"schemac/internal/decl"
	"schemac/internal/diag"
)

// DuplicateOrdinalDetector checks that ordinals, visited in ascending order,
// run 0, 1, 2, ... without repeats or gaps.
type DuplicateOrdinalDetector struct {
	rep      diag.Reporter
	expected uint32
	last     *decl.Located[uint32]
}

func NewDuplicateOrdinalDetector(rep diag.Reporter) *DuplicateOrdinalDetector {
	return &DuplicateOrdinalDetector{rep: rep}
}

// Check consumes the next ordinal. A repeat is reported with a note on the
// first use; the note is attached only to the first repeat of that ordinal.
// A gap is reported once and checking resumes after the offending ordinal.
func (d *DuplicateOrdinalDetector) Check(ord decl.Located[uint32]) {
	switch {
	case ord.Value < d.expected:
		b := diag.ReportError(d.rep, diag.OrdDuplicate, ord.Span, "Duplicate ordinal number.")
		if d.last != nil {
			b.WithNote(d.last.Span, fmt.Sprintf("Ordinal @%d originally used here.", d.last.Value))
			d.last = nil
		}
		b.Emit()
	case ord.Value > d.expected:
		diag.Errorf(d.rep, diag.OrdSkipped, ord.Span,
			"Skipped ordinal @%d.  Ordinals must be sequential with no holes.", d.expected)
		d.expected = ord.Value + 1
		d.last = &ord
	default:
		d.expected++
		d.last = &ord
	}
}

// Expected is the ordinal the next declaration should carry.
func (d *DuplicateOrdinalDetector) Expected() uint32 {
	return d.expected
}
