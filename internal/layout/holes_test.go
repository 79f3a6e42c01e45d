package layout

import (
	"errors"
	"testing"
)

func TestHoleSetTryAllocateSplitsLargerHole(t *testing.T) {
	var h HoleSet[uint32]
	h.AddHolesAtEnd(5, 1, LgBitsPerWord)

	got, ok := h.TryAllocate(3)
	if !ok || got != 4 {
		t.Fatalf("TryAllocate(3) = %d, %v; want 4, true", got, ok)
	}
	if _, ok := h.Hole(5); ok {
		t.Fatalf("32-bit hole should have been consumed")
	}
	if off, ok := h.Hole(4); !ok || off != 3 {
		t.Fatalf("16-bit hole = %d, %v; want 3, true", off, ok)
	}
	if off, ok := h.Hole(3); !ok || off != 5 {
		t.Fatalf("8-bit hole = %d, %v; want 5, true", off, ok)
	}
}

func TestHoleSetTryAllocateEmpty(t *testing.T) {
	var h HoleSet[uint8]
	if _, ok := h.TryAllocate(0); ok {
		t.Fatalf("empty set must not allocate")
	}
	if _, ok := h.TryAllocate(6); ok {
		t.Fatalf("word-sized request must never come from holes")
	}
}

func TestHoleSetTryExpand(t *testing.T) {
	var h HoleSet[uint32]
	h.AddHolesAtEnd(0, 1, LgBitsPerWord)

	if !h.TryExpand(0, 0, 3) {
		t.Fatalf("bit at offset 0 should grow to a byte")
	}
	for lg := uint8(0); lg < 3; lg++ {
		if _, ok := h.Hole(lg); ok {
			t.Fatalf("hole lg=%d should be absorbed", lg)
		}
	}
	for lg := uint8(3); lg < maxHoleLgSize; lg++ {
		if off, ok := h.Hole(lg); !ok || off != 1 {
			t.Fatalf("hole lg=%d = %d, %v; want 1, true", lg, off, ok)
		}
	}
}

func TestHoleSetTryExpandFailureLeavesSetUntouched(t *testing.T) {
	var h HoleSet[uint32]
	h.AddHolesAtEnd(0, 1, 2)
	before := h

	if h.TryExpand(0, 0, 3) {
		t.Fatalf("expansion past the available holes must fail")
	}
	if h != before {
		t.Fatalf("failed TryExpand modified the set: %+v -> %+v", before, h)
	}
	if !h.TryExpand(0, 0, 0) {
		t.Fatalf("zero factor always succeeds")
	}
}

func TestHoleSetAddHolesConflictPanics(t *testing.T) {
	var h HoleSet[uint32]
	h.AddHolesAtEnd(2, 1, 4)

	err := func() (err error) {
		defer Recover(&err)
		h.AddHolesAtEnd(2, 1, 4)
		return nil
	}()
	var lerr *LayoutError
	if !errors.As(err, &lerr) || lerr.Kind != LayoutErrHoleConflict {
		t.Fatalf("expected hole conflict, got %v", err)
	}
}

func TestHoleSetFirstWordUsed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *HoleSet[uint32])
		want  uint8
	}{
		{"empty", func(h *HoleSet[uint32]) {}, 6},
		{"one bit", func(h *HoleSet[uint32]) { h.AddHolesAtEnd(0, 1, 6) }, 0},
		{"one byte", func(h *HoleSet[uint32]) { h.AddHolesAtEnd(3, 1, 6) }, 3},
		{"two bytes", func(h *HoleSet[uint32]) {
			h.AddHolesAtEnd(3, 1, 6)
			h.AssertHoleAndAllocate(3)
		}, 4},
		{"half word", func(h *HoleSet[uint32]) { h.AddHolesAtEnd(5, 1, 6) }, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h HoleSet[uint32]
			tt.setup(&h)
			if got := h.FirstWordUsed(); got != tt.want {
				t.Fatalf("FirstWordUsed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHoleSetSmallestAtLeast(t *testing.T) {
	var h HoleSet[uint8]
	h.AddHolesAtEnd(4, 1, 6)
	if lg, ok := h.SmallestAtLeast(1); !ok || lg != 4 {
		t.Fatalf("SmallestAtLeast(1) = %d, %v; want 4, true", lg, ok)
	}
	if _, ok := h.SmallestAtLeast(6); ok {
		t.Fatalf("no hole can hold a word")
	}
}
