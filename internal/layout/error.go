package layout

import (
	"fmt"
)

// LayoutErrorKind enumerates allocator invariant violations.
type LayoutErrorKind uint8

const (
	// LayoutErrNeverAllocated indicates an expansion request for space that no
	// data location of the group contains.
	LayoutErrNeverAllocated LayoutErrorKind = iota + 1
	LayoutErrMissingHole
	LayoutErrHoleConflict
	LayoutErrMissingDiscriminant
	LayoutErrBadScope
)

// LayoutError is raised (as a panic value) when the allocator detects that its
// own bookkeeping is inconsistent. It is never caused by user input; any
// in-flight layout must be discarded.
type LayoutError struct {
	Kind   LayoutErrorKind
	LgSize uint8
	Offset uint32
	Union  UnionID // for LayoutErrMissingDiscriminant
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrNeverAllocated:
		return fmt.Sprintf("tried to expand field that was never allocated (lgSize=%d offset=%d)", e.LgSize, e.Offset)
	case LayoutErrMissingHole:
		return fmt.Sprintf("expected a hole of lgSize=%d", e.LgSize)
	case LayoutErrHoleConflict:
		return fmt.Sprintf("hole set already has a hole of lgSize=%d (adding offset %d)", e.LgSize, e.Offset)
	case LayoutErrMissingDiscriminant:
		return fmt.Sprintf("union#%d has no discriminant after allocation", e.Union)
	case LayoutErrBadScope:
		return "unknown allocation scope"
	default:
		return fmt.Sprintf("layout error kind=%d", e.Kind)
	}
}

// Recover converts a *LayoutError panic into an error stored in *errp. Other
// panics propagate.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if lerr, ok := r.(*LayoutError); ok {
		*errp = lerr
		return
	}
	panic(r)
}
