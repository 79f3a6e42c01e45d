package layout

// maxHoleLgSize bounds hole sizes: holes are 1..32 bits, a 64-bit field never
// leaves a sub-word hole behind.
const maxHoleLgSize = 6

// HoleSet tracks padding inside an allocated region: at most one hole of each
// power-of-two size between 1 and 32 bits.
//
// Every data field has a power-of-two size and is aligned to that size. When a
// field of size N is placed into the smallest hole M >= N, the rest of M splits
// into holes of sizes N, 2N, ..., M/2, none of which could have existed before
// (otherwise M would not have been the smallest). Growing the region by a whole
// word behaves the same with M = 64. So there is never more than one hole per
// size class.
//
// holes[lg] is the offset of the hole of size 2^lg, measured in units of that
// size. Zero means "no hole": the first allocation in any region lands at offset
// zero, so offset zero can never be a hole.
type HoleSet[T ~uint8 | ~uint32] struct {
	holes [maxHoleLgSize]T
}

// TryAllocate finds space for a field of size 2^lgSize among the holes and
// removes it from the set, splitting a larger hole if needed.
func (h *HoleSet[T]) TryAllocate(lgSize uint8) (T, bool) {
	if lgSize >= maxHoleLgSize {
		return 0, false
	}
	if h.holes[lgSize] != 0 {
		result := h.holes[lgSize]
		h.holes[lgSize] = 0
		return result, true
	}
	next, ok := h.TryAllocate(lgSize + 1)
	if !ok {
		return 0, false
	}
	result := next * 2
	h.holes[lgSize] = result + 1
	return result, true
}

// AssertHoleAndAllocate takes the hole of exactly 2^lgSize, which must exist.
func (h *HoleSet[T]) AssertHoleAndAllocate(lgSize uint8) T {
	if lgSize >= maxHoleLgSize || h.holes[lgSize] == 0 {
		panic(&LayoutError{Kind: LayoutErrMissingHole, LgSize: lgSize})
	}
	result := h.holes[lgSize]
	h.holes[lgSize] = 0
	return result
}

// AddHolesAtEnd registers holes of sizes [lgSize, limitLgSize) following a field
// of size 2^lgSize that was just placed at the start of a 2^limitLgSize span.
// offset is the first hole's offset in units of 2^lgSize and must be odd.
func (h *HoleSet[T]) AddHolesAtEnd(lgSize uint8, offset T, limitLgSize uint8) {
	if limitLgSize > maxHoleLgSize {
		limitLgSize = maxHoleLgSize
	}
	for lgSize < limitLgSize {
		if h.holes[lgSize] != 0 || offset%2 != 1 {
			panic(&LayoutError{Kind: LayoutErrHoleConflict, LgSize: lgSize, Offset: uint32(offset)})
		}
		h.holes[lgSize] = offset
		lgSize++
		offset = (offset + 1) / 2
	}
}

// TryExpand grows the value at oldOffset (units of 2^oldLgSize) by a factor of
// 2^factor, merging it with the holes directly after it. Nothing is changed
// unless the whole expansion succeeds.
func (h *HoleSet[T]) TryExpand(oldLgSize uint8, oldOffset uint32, factor uint8) bool {
	if factor == 0 {
		return true
	}
	if oldLgSize >= maxHoleLgSize {
		return false
	}
	if uint32(h.holes[oldLgSize]) != oldOffset+1 {
		return false
	}
	if !h.TryExpand(oldLgSize+1, oldOffset>>1, factor-1) {
		return false
	}
	h.holes[oldLgSize] = 0
	return true
}

// SmallestAtLeast returns the lg size of the smallest hole of at least 2^lgSize.
func (h *HoleSet[T]) SmallestAtLeast(lgSize uint8) (uint8, bool) {
	for i := lgSize; i < maxHoleLgSize; i++ {
		if h.holes[i] != 0 {
			return i, true
		}
	}
	return 0, false
}

// FirstWordUsed returns the lg of how many bits of the first word are in use.
//
// A 32-bit hole at 32-bit offset 1 means at most the low 32 bits are used; if
// so and there is also a 16-bit hole at 16-bit offset 1, at most 16; and so on.
func (h *HoleSet[T]) FirstWordUsed() uint8 {
	for i := uint8(maxHoleLgSize); i > 0; i-- {
		if h.holes[i-1] != 1 {
			return i
		}
	}
	return 0
}

// Hole reports the hole of size 2^lgSize, if any.
func (h *HoleSet[T]) Hole(lgSize uint8) (T, bool) {
	if lgSize >= maxHoleLgSize || h.holes[lgSize] == 0 {
		return 0, false
	}
	return h.holes[lgSize], true
}
