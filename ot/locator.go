package ot

// Locator — a filtered cursor over an album.
//
// Grounded on the teacher's OTApplyContext skip/match logic
// (ot_apply_context.go: MaySkip/MayMatch, NextContextMatch/
// PrevContextMatch) but restated against the Album's parallel-array
// glyph details instead of Buffer.Info, and generalized into a
// standalone value (§4.2) that the context matcher can save, clone,
// and resume independently of the outer walk.

// Lookup flag bits, per the OpenType LookupFlag field and mirrored in
// the teacher's gpos.go constants of the same names.
const (
	LookupFlagRightToLeft         uint16 = 0x0001
	LookupFlagIgnoreBaseGlyphs    uint16 = 0x0002
	LookupFlagIgnoreLigatures     uint16 = 0x0004
	LookupFlagIgnoreMarks         uint16 = 0x0008
	LookupFlagUseMarkFilteringSet uint16 = 0x0010
	LookupFlagMarkAttachmentType  uint16 = 0xFF00
)

// InvalidIndex is the sentinel returned by locator navigation methods
// when there is no valid position in the requested direction.
const InvalidIndex = -1

// Locator walks an Album's glyph sequence, skipping positions excluded
// by the active lookup's flag. It borrows the album for the duration
// of one lookup application; it never outlives the mutation that
// invalidates it (§5).
type Locator struct {
	album *Album

	start, limit int
	index        int

	lookupFlag       uint16
	markFilteringSet *Coverage
	gdef             *GDEF

	version uint64
}

// NewLocator creates a locator over album, initially unreset.
func NewLocator(album *Album, gdef *GDEF) *Locator {
	return &Locator{album: album, gdef: gdef, index: InvalidIndex}
}

// Reset sets the traversal window to [start, start+count) and
// invalidates the current position.
func (l *Locator) Reset(start, count int) {
	l.start = start
	l.limit = start + count
	l.index = InvalidIndex
	l.version = l.album.Version()
}

// Reserve loads the filtering state — the active lookup's flag byte
// and, if LookupFlagUseMarkFilteringSet is set, the mark filtering
// coverage table.
func (l *Locator) Reserve(flag uint16, markFilteringSet *Coverage) {
	l.lookupFlag = flag
	l.markFilteringSet = markFilteringSet
}

// stale reports whether the album has changed since this locator was
// last Reset or re-anchored. Nothing in this package calls it, so a
// locator walked over a mutated album is not detected.
func (l *Locator) stale() bool { return l.version != l.album.Version() }

// filtered reports whether the glyph at index i should be skipped
// under the current lookup flag (§4.2 "Filtering").
func (l *Locator) filtered(i int) bool {
	traits := l.album.GetTraits(i)

	// A placeholder slot is logically already removed; every walk
	// skips it regardless of lookup flags (§4.2 lists placeholders
	// alongside mark/ligature-component traits in the ignore set).
	if traits&TraitPlaceholder != 0 {
		return true
	}

	var ignoreMask Traits
	if l.lookupFlag&LookupFlagIgnoreBaseGlyphs != 0 {
		ignoreMask |= TraitBase
	}
	if l.lookupFlag&LookupFlagIgnoreLigatures != 0 {
		ignoreMask |= TraitLigature
	}
	if l.lookupFlag&LookupFlagIgnoreMarks != 0 {
		ignoreMask |= TraitMark
	}
	if traits&ignoreMask != 0 {
		return true
	}

	if traits&TraitMark == 0 {
		return false
	}

	if l.lookupFlag&LookupFlagUseMarkFilteringSet != 0 && l.markFilteringSet != nil {
		gid := l.album.GetGlyph(i)
		if !l.markFilteringSet.Contains(gid) {
			return true
		}
	}

	if attachType := l.lookupFlag & LookupFlagMarkAttachmentType; attachType != 0 {
		gid := l.album.GetGlyph(i)
		class := uint16(l.gdef.MarkAttachClass(gid)) << 8
		if attachType != class {
			return true
		}
	}

	return false
}

// MoveNext advances index to the next unfiltered position strictly after
// the current one (or at the window start when index is InvalidIndex),
// returning false once the window is exhausted.
func (l *Locator) MoveNext() bool {
	next := l.index + 1
	if l.index == InvalidIndex {
		next = l.start
	}
	for next < l.limit {
		if !l.filtered(next) {
			l.index = next
			return true
		}
		next++
	}
	l.index = l.limit
	return false
}

// Skip advances n unfiltered positions past the current one.
func (l *Locator) Skip(n int) bool {
	for i := 0; i < n; i++ {
		if !l.MoveNext() {
			return false
		}
	}
	return true
}

// JumpTo sets index directly, used to re-anchor inside a matched
// context without re-walking from the window start.
func (l *Locator) JumpTo(k int) { l.index = k }

// Index returns the current logical position, or InvalidIndex.
func (l *Locator) Index() int { return l.index }

// GetAfter returns the next unfiltered index strictly greater than k
// within the window, or InvalidIndex if none remains.
func (l *Locator) GetAfter(k int) int {
	for i := k + 1; i < l.limit; i++ {
		if !l.filtered(i) {
			return i
		}
	}
	return InvalidIndex
}

// GetBefore returns the previous unfiltered index strictly less than k.
// Unlike GetAfter it is allowed to walk below the window start for
// backtrack assessment, clamping at album index 0.
func (l *Locator) GetBefore(k int) int {
	for i := k - 1; i >= 0; i-- {
		if !l.filtered(i) {
			return i
		}
	}
	return InvalidIndex
}

// TakeState copies the effective position of another locator (one that
// just finished walking a matched context) so the outer walk resumes
// past everything that context consumed. It only copies index, not
// limit: from is typically a locator scoped to the matched range alone
// (a much smaller window than the outer walk's), so the caller is
// responsible for adjusting the outer locator's own limit by whatever
// net glyph-count delta the nested application produced (§4.4 "Nested
// application protocol").
func (l *Locator) TakeState(from *Locator) {
	l.index = from.index
	l.version = l.album.Version()
}

// Clone returns an independent copy of the locator's cursor state,
// borrowing the same album. Used by the context matcher to save the
// outer locator before constructing an inner one over the matched
// range (§4.4 "Nested application protocol").
func (l *Locator) Clone() *Locator {
	c := *l
	return &c
}
