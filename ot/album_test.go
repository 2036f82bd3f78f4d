package ot

import "testing"

func TestAlbumResetRejectsEmpty(t *testing.T) {
	a := NewAlbum()
	if err := a.Reset(nil); err == nil {
		t.Fatal("expected error resetting with no code points")
	}
}

func TestAlbumFillPhase(t *testing.T) {
	a := NewAlbum()
	if err := a.Reset([]rune("ab")); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if a.State() != StateEmpty {
		t.Fatalf("expected Empty state, got %s", a.State())
	}

	a.StartFilling()
	a.AddGlyph(10, 0)
	a.AddGlyph(11, 1)
	a.StopFilling()

	if got := a.GlyphCount(); got != 2 {
		t.Fatalf("GlyphCount() = %d, want 2", got)
	}
	if got := a.GetGlyph(0); got != 10 {
		t.Fatalf("GetGlyph(0) = %d, want 10", got)
	}
	if a.GetFeatureMask(0) != featureMaskEmpty {
		t.Fatalf("new glyph should carry the empty feature mask sentinel")
	}
}

func TestAlbumWrongStatePanics(t *testing.T) {
	a := NewAlbum()
	_ = a.Reset([]rune("a"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling AddGlyph outside Filling state")
		}
	}()
	a.AddGlyph(1, 0)
}

func TestAntiFeatureMaskSymmetry(t *testing.T) {
	if AntiFeatureMask(0) != 0x0000 {
		t.Fatalf("AntiFeatureMask(0) = %#04x, want 0x0000", AntiFeatureMask(0))
	}
	if AntiFeatureMask(featureMaskEmpty) != ^uint16(featureMaskEmpty) {
		t.Fatalf("AntiFeatureMask(0xFFFF) should follow plain complement for non-zero input")
	}
	if got := AntiFeatureMask(0x0001); got != 0xFFFE {
		t.Fatalf("AntiFeatureMask(0x0001) = %#04x, want 0xFFFE", got)
	}
}

func TestTraitsRoundTrip(t *testing.T) {
	a := NewAlbum()
	_ = a.Reset([]rune("a"))
	a.StartFilling()
	a.AddGlyph(5, 0)
	a.InsertTraits(0, TraitBase)
	if a.GetTraits(0)&TraitBase == 0 {
		t.Fatal("expected TraitBase to be set")
	}
	a.InsertTraits(0, TraitLigature)
	if a.GetTraits(0)&TraitBase == 0 || a.GetTraits(0)&TraitLigature == 0 {
		t.Fatal("InsertTraits must OR in, not replace")
	}
	a.RemoveTraits(0, TraitBase)
	if a.GetTraits(0)&TraitBase != 0 {
		t.Fatal("RemoveTraits should have cleared TraitBase")
	}
	if a.GetTraits(0)&TraitLigature == 0 {
		t.Fatal("RemoveTraits should not disturb other bits")
	}
}

func TestCompositeAssociations(t *testing.T) {
	a := NewAlbum()
	_ = a.Reset([]rune("fi"))
	a.StartFilling()
	a.AddGlyph(1, 0)
	a.AddGlyph(2, 1)
	cells := a.MakeCompositeAssociations(0, 2)
	cells[0] = 0
	cells[1] = 1
	if !a.IsComposite(0) {
		t.Fatal("expected glyph 0 to be composite after MakeCompositeAssociations")
	}
	got := a.GetCompositeAssociations(0)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("GetCompositeAssociations = %v, want [0 1]", got)
	}
}

func TestRemovePlaceholdersPreservesOrder(t *testing.T) {
	a := NewAlbum()
	_ = a.Reset([]rune("abcd"))
	a.StartFilling()
	for i, g := range []GlyphID{1, 2, 3, 4} {
		a.AddGlyph(g, i)
	}
	a.StopFilling()
	a.InsertTraits(1, TraitPlaceholder)
	a.InsertTraits(2, TraitPlaceholder)

	a.RemovePlaceholders()

	if a.GlyphCount() != 2 {
		t.Fatalf("GlyphCount() = %d, want 2", a.GlyphCount())
	}
	if a.GetGlyph(0) != 1 || a.GetGlyph(1) != 4 {
		t.Fatalf("survivors = [%d %d], want [1 4]", a.GetGlyph(0), a.GetGlyph(1))
	}
}

func TestBuildCodePointToGlyphMapFirstWinner(t *testing.T) {
	a := NewAlbum()
	_ = a.Reset([]rune("x"))
	a.StartFilling()
	// Simulate a one-to-many multiple substitution: two glyphs both
	// associated with code point 0.
	a.AddGlyph(1, 0)
	a.AddGlyph(2, 0)
	a.StopFilling()
	a.StartArranging()

	a.BuildCodePointToGlyphMap()

	got := a.GetCodeUnitToGlyphMapPtr()
	if len(got) != 1 {
		t.Fatalf("map length = %d, want 1", len(got))
	}
	if got[0] != 0 {
		t.Fatalf("code point 0 should map to the first glyph (reverse traversal winner), got glyph index %d", got[0])
	}
}
