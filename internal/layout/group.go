package layout

// Group is one alternative of a union. It never allocates struct space by
// itself: it carves its fields out of the union's shared locations and asks
// the union for more when they run out.
type Group struct {
	parent     UnionID
	hasMembers bool

	// usage parallels the parent union's dataLocations; it may lag behind and
	// is extended on demand.
	usage []dataLocationUsage

	// pointerUsage counts the union's pointer slots consumed by this group.
	pointerUsage uint32
}

// dataLocationUsage is how much of one union data location a group occupies.
// Hole offsets are relative to the start of the location.
type dataLocationUsage struct {
	used       bool
	lgSizeUsed uint8
	holes      HoleSet[uint8]
}

func (l *Layout) addMember(g GroupID) {
	if l.groups[g].hasMembers {
		return
	}
	l.groups[g].hasMembers = true
	l.unionAddMember(l.groups[g].parent)
}

func (l *Layout) syncUsage(g GroupID) {
	grp := &l.groups[g]
	for len(grp.usage) < len(l.unions[grp.parent].dataLocations) {
		grp.usage = append(grp.usage, dataLocationUsage{})
	}
}

func (l *Layout) groupAddData(g GroupID, lgSize uint8) uint32 {
	l.addMember(g)
	l.syncUsage(g)
	u := l.groups[g].parent

	// Pick the smallest hole across all locations so that only one location
	// gets fragmented.
	best := -1
	bestSize := uint8(0xff)
	for i, loc := range l.unions[u].dataLocations {
		if hole, ok := l.groups[g].usage[i].smallestHoleAtLeast(loc, lgSize); ok && hole < bestSize {
			bestSize = hole
			best = i
		}
	}
	if best >= 0 {
		loc := l.unions[u].dataLocations[best]
		return l.groups[g].usage[best].allocateFromHole(loc, lgSize)
	}

	for i := range l.unions[u].dataLocations {
		if offset, ok := l.tryAllocateByExpanding(g, i, lgSize); ok {
			return offset
		}
	}

	offset := l.addNewDataLocation(u, lgSize)
	grp := &l.groups[g]
	grp.usage = append(grp.usage, dataLocationUsage{used: true, lgSizeUsed: lgSize})
	return offset
}

func (l *Layout) groupAddPointer(g GroupID) uint32 {
	l.addMember(g)
	grp := &l.groups[g]
	u := grp.parent
	if int(grp.pointerUsage) < len(l.unions[u].pointerLocations) {
		p := l.unions[u].pointerLocations[grp.pointerUsage]
		grp.pointerUsage++
		return p
	}
	grp.pointerUsage++
	return l.addNewPointerLocation(u)
}

func (l *Layout) groupTryExpandData(g GroupID, oldLgSize uint8, oldOffset uint32, factor uint8) bool {
	if factor == 0 {
		return true
	}
	if oldLgSize+factor > LgBitsPerWord || oldOffset&(1<<factor-1) != 0 {
		return false
	}
	u := l.groups[g].parent
	for i := range l.groups[g].usage {
		loc := l.unions[u].dataLocations[i]
		if loc.LgSize < oldLgSize || oldOffset>>(loc.LgSize-oldLgSize) != loc.Offset {
			continue
		}
		local := oldOffset - loc.Offset<<(loc.LgSize-oldLgSize)
		return l.usageTryExpand(g, i, oldLgSize, local, factor)
	}
	panic(&LayoutError{Kind: LayoutErrNeverAllocated, LgSize: oldLgSize, Offset: oldOffset})
}

// tryAllocateByExpanding places a field in location i after growing either the
// group's usage or the location itself. Called only when no hole fits.
func (l *Layout) tryAllocateByExpanding(g GroupID, i int, lgSize uint8) (uint32, bool) {
	u := l.groups[g].parent
	if !l.groups[g].usage[i].used {
		if !l.expandLocation(u, i, lgSize) {
			return 0, false
		}
		usage := &l.groups[g].usage[i]
		usage.used = true
		usage.lgSizeUsed = lgSize
		loc := l.unions[u].dataLocations[i]
		return loc.Offset << (loc.LgSize - lgSize), true
	}

	newSize := max(l.groups[g].usage[i].lgSizeUsed, lgSize) + 1
	if !l.tryExpandUsage(g, i, newSize, true) {
		return 0, false
	}
	hole, ok := l.groups[g].usage[i].holes.TryAllocate(lgSize)
	if !ok {
		panic(&LayoutError{Kind: LayoutErrMissingHole, LgSize: lgSize})
	}
	loc := l.unions[u].dataLocations[i]
	return loc.Offset<<(loc.LgSize-lgSize) + uint32(hole), true
}

// tryExpandUsage grows the group's used part of location i to 2^desired,
// growing the location first if it is too small. With newHoles the added
// space becomes holes; otherwise the caller's value already covers it.
func (l *Layout) tryExpandUsage(g GroupID, i int, desired uint8, newHoles bool) bool {
	u := l.groups[g].parent
	if desired > l.unions[u].dataLocations[i].LgSize {
		if !l.expandLocation(u, i, desired) {
			return false
		}
	}
	usage := &l.groups[g].usage[i]
	if newHoles {
		usage.holes.AddHolesAtEnd(usage.lgSizeUsed, 1, desired)
	}
	usage.lgSizeUsed = desired
	return true
}

func (l *Layout) usageTryExpand(g GroupID, i int, oldLgSize uint8, localOffset uint32, factor uint8) bool {
	usage := &l.groups[g].usage[i]
	if localOffset == 0 && usage.lgSizeUsed == oldLgSize {
		// The location holds exactly this value; grow the whole usage.
		return l.tryExpandUsage(g, i, oldLgSize+factor, false)
	}
	// Other data shares the used space, so the value can only absorb holes.
	return usage.holes.TryExpand(oldLgSize, localOffset, factor)
}

// smallestHoleAtLeast returns the size of the smallest space in loc that
// could take a 2^lgSize field without growing the location.
func (u *dataLocationUsage) smallestHoleAtLeast(loc DataLocation, lgSize uint8) (uint8, bool) {
	switch {
	case !u.used:
		// The whole location is one big hole.
		if lgSize <= loc.LgSize {
			return loc.LgSize, true
		}
		return 0, false
	case lgSize >= u.lgSizeUsed:
		// Cannot fit in a current hole, but the usage could double inside the
		// location.
		if lgSize < loc.LgSize {
			return lgSize, true
		}
		return 0, false
	}
	if hole, ok := u.holes.SmallestAtLeast(lgSize); ok {
		return hole, true
	}
	if u.lgSizeUsed < loc.LgSize {
		// Doubling the usage creates a hole the size of the current usage.
		return u.lgSizeUsed, true
	}
	return 0, false
}

// allocateFromHole commits a placement that smallestHoleAtLeast reported as
// possible. The result is in units of 2^lgSize from the start of the section.
func (u *dataLocationUsage) allocateFromHole(loc DataLocation, lgSize uint8) uint32 {
	var result uint32
	switch {
	case !u.used:
		result = 0
		u.used = true
		u.lgSizeUsed = lgSize
	case lgSize >= u.lgSizeUsed:
		// Double to twice the requested size and take the second half.
		u.holes.AddHolesAtEnd(u.lgSizeUsed, 1, lgSize)
		u.lgSizeUsed = lgSize + 1
		result = 1
	default:
		if hole, ok := u.holes.TryAllocate(lgSize); ok {
			result = uint32(hole)
		} else {
			result = 1 << (u.lgSizeUsed - lgSize)
			u.holes.AddHolesAtEnd(lgSize, uint8(result+1), u.lgSizeUsed)
			u.lgSizeUsed++
		}
	}
	return loc.Offset<<(loc.LgSize-lgSize) + result
}
