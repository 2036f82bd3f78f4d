package ot

import "testing"

func newTestAlbum(t *testing.T, glyphs []GlyphID, traits []Traits) *Album {
	t.Helper()
	a := NewAlbum()
	if err := a.Reset(make([]rune, len(glyphs))); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	a.StartFilling()
	for i, g := range glyphs {
		a.AddGlyph(g, i)
	}
	for i, tr := range traits {
		if tr != 0 {
			a.InsertTraits(i, tr)
		}
	}
	a.StopFilling()
	return a
}

func TestLocatorMoveNextSkipsPlaceholders(t *testing.T) {
	a := newTestAlbum(t, []GlyphID{1, 2, 3}, []Traits{0, TraitPlaceholder, 0})
	loc := NewLocator(a, nil)
	loc.Reset(0, a.GlyphCount())
	loc.Reserve(0, nil)

	var seen []int
	for loc.MoveNext() {
		seen = append(seen, loc.Index())
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 2 {
		t.Fatalf("seen = %v, want [0 2] (index 1 is a placeholder)", seen)
	}
}

func TestLocatorIgnoreMarks(t *testing.T) {
	a := newTestAlbum(t, []GlyphID{1, 2, 3}, []Traits{TraitBase, TraitMark, TraitBase})
	loc := NewLocator(a, nil)
	loc.Reserve(LookupFlagIgnoreMarks, nil)
	loc.Reset(0, a.GlyphCount())

	var seen []int
	for loc.MoveNext() {
		seen = append(seen, loc.Index())
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 2 {
		t.Fatalf("seen = %v, want [0 2] with IgnoreMarks active", seen)
	}
}

func TestLocatorMarkFilteringSet(t *testing.T) {
	a := newTestAlbum(t, []GlyphID{1, 2, 3}, []Traits{TraitBase, TraitMark, TraitMark})
	a.SetGlyph(1, 100)
	a.SetGlyph(2, 200)

	markSet := &Coverage{format: 1, glyphs: []GlyphID{100}}
	loc := NewLocator(a, nil)
	loc.Reserve(LookupFlagUseMarkFilteringSet, markSet)
	loc.Reset(0, a.GlyphCount())

	var seen []int
	for loc.MoveNext() {
		seen = append(seen, loc.Index())
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("seen = %v, want [0 1]: glyph at index 2 (mark 200) is outside the filtering set", seen)
	}
}

func TestLocatorGetAfterGetBefore(t *testing.T) {
	a := newTestAlbum(t, []GlyphID{1, 2, 3, 4}, []Traits{0, TraitMark, 0, 0})
	loc := NewLocator(a, nil)
	loc.Reserve(LookupFlagIgnoreMarks, nil)
	loc.Reset(0, a.GlyphCount())

	if got := loc.GetAfter(0); got != 2 {
		t.Fatalf("GetAfter(0) = %d, want 2 (skipping the mark at 1)", got)
	}
	if got := loc.GetBefore(2); got != 0 {
		t.Fatalf("GetBefore(2) = %d, want 0", got)
	}
	if got := loc.GetAfter(3); got != InvalidIndex {
		t.Fatalf("GetAfter(3) = %d, want InvalidIndex", got)
	}
}

func TestLocatorTakeStateResumesPastContext(t *testing.T) {
	// TakeState only ever copies index, never limit: a nested locator is
	// scoped to the matched range alone, far narrower than the outer
	// walk's own window, so blindly copying its limit back would
	// truncate the outer walk right after the first matched context.
	// (applyNested in context.go relies on this: it leaves outer.limit
	// to its caller's own before/after delta accounting and only uses
	// TakeState to move outer's position past the consumed range.)
	a := newTestAlbum(t, []GlyphID{1, 2, 3, 4, 5}, nil)
	outer := NewLocator(a, nil)
	outer.Reserve(0, nil)
	outer.Reset(0, a.GlyphCount())
	outer.MoveNext() // index 0

	inner := outer.Clone()
	inner.Reset(0, 3) // matched a 3-glyph context, contextEnd == 2
	inner.JumpTo(2)

	outer.TakeState(inner)
	if outer.Index() != 2 {
		t.Fatalf("outer.Index() = %d, want 2 after TakeState", outer.Index())
	}
	if outer.limit != a.GlyphCount() {
		t.Fatalf("outer.limit = %d, want unchanged %d: TakeState must not adopt the inner locator's narrower limit", outer.limit, a.GlyphCount())
	}
	if !outer.MoveNext() || outer.Index() != 3 {
		t.Fatalf("outer walk should resume at index 3, got %d", outer.Index())
	}
	if !outer.MoveNext() || outer.Index() != 4 {
		t.Fatalf("outer walk should continue past the matched context all the way to index 4, got %d", outer.Index())
	}
}
