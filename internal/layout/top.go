package layout

// Top is the root scope of a struct. It is the only place new words and
// pointer slots come from; unions and groups fall through to it.
type Top struct {
	DataWordCount uint32
	PointerCount  uint32

	// Holes are the unused spans of the data section.
	Holes HoleSet[uint32]
}

func (t *Top) addData(lgSize uint8) uint32 {
	if hole, ok := t.Holes.TryAllocate(lgSize); ok {
		return hole
	}
	// Новое слово: поле в младших битах, остаток уходит в дыры.
	offset := t.DataWordCount << (LgBitsPerWord - lgSize)
	t.DataWordCount++
	t.Holes.AddHolesAtEnd(lgSize, offset+1, LgBitsPerWord)
	return offset
}

func (t *Top) addPointer() uint32 {
	p := t.PointerCount
	t.PointerCount++
	return p
}

func (t *Top) tryExpandData(oldLgSize uint8, oldOffset uint32, factor uint8) bool {
	return t.Holes.TryExpand(oldLgSize, oldOffset, factor)
}
