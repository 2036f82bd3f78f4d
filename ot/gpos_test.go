package ot

import "testing"

func TestApplySinglePosFormat1(t *testing.T) {
	header := []byte{}
	header = be16(header, 1) // format
	header = be16(header, 0) // coverage offset placeholder
	header = be16(header, valueFmtXAdvance|valueFmtXPlacement)
	header = be16(header, uint16(int16(-3))) // xPlacement
	header = be16(header, 50)                // xAdvance

	var cov []byte
	cov = be16(cov, 1)
	cov = be16(cov, 1)
	cov = be16(cov, 7)

	covOff := len(header)
	header[2], header[3] = byte(covOff>>8), byte(covOff)
	data := append(header, cov...)

	a := newTestAlbum(t, []GlyphID{7}, nil)
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 1)
	loc.MoveNext()

	if !applySinglePos(data, a, loc) {
		t.Fatal("expected single positioning to match covered glyph")
	}
	if a.advances[0] != 50 {
		t.Fatalf("advance = %d, want 50", a.advances[0])
	}
	if a.positions[0].X != -3 {
		t.Fatalf("x placement = %d, want -3", a.positions[0].X)
	}
}

func TestApplySinglePosFormat2PerGlyphValues(t *testing.T) {
	header := []byte{}
	header = be16(header, 2) // format
	header = be16(header, 0) // coverage offset placeholder
	header = be16(header, valueFmtXAdvance)
	header = be16(header, 2)   // value count
	header = be16(header, 100) // record 0: xAdvance
	header = be16(header, 200) // record 1: xAdvance

	var cov []byte
	cov = be16(cov, 1)
	cov = be16(cov, 2)
	cov = be16(cov, 5)
	cov = be16(cov, 6)

	covOff := len(header)
	header[2], header[3] = byte(covOff>>8), byte(covOff)
	data := append(header, cov...)

	a := newTestAlbum(t, []GlyphID{6}, nil)
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 1)
	loc.MoveNext()

	if !applySinglePos(data, a, loc) {
		t.Fatal("expected format 2 positioning to match glyph 6 (coverage index 1)")
	}
	if a.advances[0] != 200 {
		t.Fatalf("advance = %d, want 200 (record for coverage index 1)", a.advances[0])
	}
}

// buildPairPosFormat1 assembles a PairPos format 1 subtable whose sole
// pair set holds one PairValueRecord: (secondGlyph, xAdvance).
func buildPairPosFormat1(firstGlyph, secondGlyph GlyphID, xAdvance uint16) []byte {
	header := []byte{}
	header = be16(header, 1) // format
	header = be16(header, 0) // coverage offset placeholder
	header = be16(header, valueFmtXAdvance)
	header = be16(header, 0) // value format 2: none
	header = be16(header, 1) // pair set count
	header = be16(header, 0) // pair set offset placeholder

	var pairSet []byte
	pairSet = be16(pairSet, 1) // record count
	pairSet = be16(pairSet, secondGlyph)
	pairSet = be16(pairSet, xAdvance)

	pairSetOff := len(header)
	header[10], header[11] = byte(pairSetOff>>8), byte(pairSetOff)

	var cov []byte
	cov = be16(cov, 1)
	cov = be16(cov, 1)
	cov = be16(cov, firstGlyph)

	covOff := len(header) + len(pairSet)
	header[2], header[3] = byte(covOff>>8), byte(covOff)

	data := append(header, pairSet...)
	data = append(data, cov...)
	return data
}

func TestApplyPairPosFormat1(t *testing.T) {
	data := buildPairPosFormat1(1, 2, 80)

	a := newTestAlbum(t, []GlyphID{1, 2}, nil)
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 2)
	loc.MoveNext()

	if !applyPairPos(data, a, loc) {
		t.Fatal("expected pair positioning to match glyph pair (1,2)")
	}
	if a.advances[0] != 80 {
		t.Fatalf("advances[0] = %d, want 80", a.advances[0])
	}
	if a.advances[1] != 0 {
		t.Fatalf("advances[1] = %d, want 0 (value format 2 carries no fields)", a.advances[1])
	}
}

func TestApplyPairPosNoSecondGlyph(t *testing.T) {
	data := buildPairPosFormat1(1, 2, 80)

	a := newTestAlbum(t, []GlyphID{1}, nil) // only one glyph, no pair partner
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 1)
	loc.MoveNext()

	if applyPairPos(data, a, loc) {
		t.Fatal("pair positioning should not match without a second glyph")
	}
}

func TestApplyCursivePosThreadsYOffset(t *testing.T) {
	header := []byte{}
	header = be16(header, 1) // format
	header = be16(header, 0) // coverage offset placeholder
	header = be16(header, 2) // entry/exit count

	// glyph 1 (coverage index 0): no entry, only exits.
	header = be16(header, 0) // entry[0]
	header = be16(header, 0) // exit[0] placeholder
	// glyph 2 (coverage index 1): entry anchor, no exit.
	header = be16(header, 0) // entry[1] placeholder
	header = be16(header, 0) // exit[1]

	var cov []byte
	cov = be16(cov, 1)
	cov = be16(cov, 2)
	cov = be16(cov, 1)
	cov = be16(cov, 2)

	var exitAnchor []byte
	exitAnchor = be16(exitAnchor, 1) // format
	exitAnchor = be16(exitAnchor, 0) // x
	exitAnchor = be16(exitAnchor, 100)

	var entryAnchor []byte
	entryAnchor = be16(entryAnchor, 1) // format
	entryAnchor = be16(entryAnchor, 0) // x
	entryAnchor = be16(entryAnchor, 40)

	covOff := len(header)
	header[2], header[3] = byte(covOff>>8), byte(covOff)

	exitOff := len(header) + len(cov)
	header[8], header[9] = byte(exitOff>>8), byte(exitOff) // exit[0]

	entryOff := exitOff + len(exitAnchor)
	header[10], header[11] = byte(entryOff>>8), byte(entryOff) // entry[1]

	data := append(header, cov...)
	data = append(data, exitAnchor...)
	data = append(data, entryAnchor...)

	a := newTestAlbum(t, []GlyphID{1, 2}, nil)
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 2)
	loc.MoveNext() // index 0 (glyph 1)
	loc.MoveNext() // index 1 (glyph 2): cursive lookups apply at the second glyph

	if !applyCursivePos(data, a, loc) {
		t.Fatal("expected cursive attachment between glyph 1's exit and glyph 2's entry")
	}
	if a.positions[1].Y != 60 {
		t.Fatalf("positions[1].Y = %d, want 60 (exitY 100 - entryY 40)", a.positions[1].Y)
	}
	if a.GetCursiveOffset(0) != 1 {
		t.Fatalf("GetCursiveOffset(0) = %d, want 1 (link from prev to this position)", a.GetCursiveOffset(0))
	}
}

// buildMarkToBase assembles a MarkBasePos format 1 subtable with a
// single mark class, one covered base glyph and one covered mark
// glyph.
func buildMarkToBase(markGlyph, baseGlyph GlyphID, mx, my, bx, by int16) []byte {
	header := []byte{}
	header = be16(header, 1) // format
	header = be16(header, 0) // markCoverageOffset placeholder
	header = be16(header, 0) // baseCoverageOffset placeholder
	header = be16(header, 1) // classCount
	header = be16(header, 0) // markArrayOffset placeholder
	header = be16(header, 0) // baseArrayOffset placeholder

	var markCov []byte
	markCov = be16(markCov, 1)
	markCov = be16(markCov, 1)
	markCov = be16(markCov, markGlyph)

	var baseCov []byte
	baseCov = be16(baseCov, 1)
	baseCov = be16(baseCov, 1)
	baseCov = be16(baseCov, baseGlyph)

	var markAnchor []byte
	markAnchor = be16(markAnchor, 1) // anchor format
	markAnchor = be16(markAnchor, uint16(mx))
	markAnchor = be16(markAnchor, uint16(my))

	var markArray []byte
	markArray = be16(markArray, 1) // markCount
	markArray = be16(markArray, 0) // markClass
	markArray = be16(markArray, 6) // anchor offset within markArray
	markArray = append(markArray, markAnchor...)

	var baseAnchor []byte
	baseAnchor = be16(baseAnchor, 1)
	baseAnchor = be16(baseAnchor, uint16(bx))
	baseAnchor = be16(baseAnchor, uint16(by))

	var baseArray []byte
	baseArray = be16(baseArray, 1) // baseCount
	baseArray = be16(baseArray, 4) // anchor offset within baseArray (base 0, class 0)
	baseArray = append(baseArray, baseAnchor...)

	markCovOff := len(header)
	baseCovOff := markCovOff + len(markCov)
	markArrayOff := baseCovOff + len(baseCov)
	baseArrayOff := markArrayOff + len(markArray)

	header[2], header[3] = byte(markCovOff>>8), byte(markCovOff)
	header[4], header[5] = byte(baseCovOff>>8), byte(baseCovOff)
	header[8], header[9] = byte(markArrayOff>>8), byte(markArrayOff)
	header[10], header[11] = byte(baseArrayOff>>8), byte(baseArrayOff)

	data := append(header, markCov...)
	data = append(data, baseCov...)
	data = append(data, markArray...)
	data = append(data, baseArray...)
	return data
}

func TestApplyMarkToAttachSetsOffsetFromAnchors(t *testing.T) {
	data := buildMarkToBase(10, 20, 5, -15, 40, 100)

	a := newTestAlbum(t, []GlyphID{20, 10}, nil) // base at 0, mark at 1
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 2)
	loc.MoveNext() // index 0: base
	loc.MoveNext() // index 1: mark, where MarkToBase lookups apply

	if !applyMarkToAttach(data, a, loc) {
		t.Fatal("expected mark-to-base attachment to match covered mark and base glyphs")
	}
	if a.positions[1].X != 35 { // baseX 40 - markX 5
		t.Fatalf("positions[1].X = %d, want 35", a.positions[1].X)
	}
	if a.positions[1].Y != 115 { // baseY 100 - markY -15
		t.Fatalf("positions[1].Y = %d, want 115", a.positions[1].Y)
	}
	if a.GetAttachmentOffset(1) != -1 {
		t.Fatalf("GetAttachmentOffset(1) = %d, want -1 (base is one position before)", a.GetAttachmentOffset(1))
	}
}

func TestApplyMarkToAttachForMarkToMarkSharesTheSameSubtableShape(t *testing.T) {
	// GPOSMarkToMark dispatches to applyMarkToAttach (gpos.go), so the
	// "base" glyph here is really another mark the second mark attaches to.
	data := buildMarkToBase(31, 30, 2, 2, 8, -20)

	a := newTestAlbum(t, []GlyphID{30, 31}, nil)
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 2)
	loc.MoveNext()
	loc.MoveNext()

	if !applyMarkToAttach(data, a, loc) {
		t.Fatal("expected mark-to-mark attachment to match via the shared mark-to-base subtable shape")
	}
	if a.GetAttachmentOffset(1) != -1 {
		t.Fatalf("GetAttachmentOffset(1) = %d, want -1", a.GetAttachmentOffset(1))
	}
}

// buildMarkToLigature assembles a MarkLigPos format 1 subtable with a
// single mark class and a single-component ligature.
func buildMarkToLigature(markGlyph, ligGlyph GlyphID, mx, my, lx, ly int16) []byte {
	header := []byte{}
	header = be16(header, 1) // format
	header = be16(header, 0) // markCoverageOffset placeholder
	header = be16(header, 0) // ligCoverageOffset placeholder
	header = be16(header, 1) // classCount
	header = be16(header, 0) // markArrayOffset placeholder
	header = be16(header, 0) // ligArrayOffset placeholder

	var markCov []byte
	markCov = be16(markCov, 1)
	markCov = be16(markCov, 1)
	markCov = be16(markCov, markGlyph)

	var ligCov []byte
	ligCov = be16(ligCov, 1)
	ligCov = be16(ligCov, 1)
	ligCov = be16(ligCov, ligGlyph)

	var markAnchor []byte
	markAnchor = be16(markAnchor, 1)
	markAnchor = be16(markAnchor, uint16(mx))
	markAnchor = be16(markAnchor, uint16(my))

	var markArray []byte
	markArray = be16(markArray, 1) // markCount
	markArray = be16(markArray, 0) // markClass
	markArray = be16(markArray, 6) // anchor offset within markArray
	markArray = append(markArray, markAnchor...)

	var ligAnchor []byte
	ligAnchor = be16(ligAnchor, 1)
	ligAnchor = be16(ligAnchor, uint16(lx))
	ligAnchor = be16(ligAnchor, uint16(ly))

	var attach []byte
	attach = be16(attach, 1) // componentCount
	attach = be16(attach, 4) // anchor offset within attach (component 0, class 0)
	attach = append(attach, ligAnchor...)

	var ligArray []byte
	ligArray = be16(ligArray, 1) // ligCount
	ligArray = be16(ligArray, 4) // attach offset within ligArray
	ligArray = append(ligArray, attach...)

	markCovOff := len(header)
	ligCovOff := markCovOff + len(markCov)
	markArrayOff := ligCovOff + len(ligCov)
	ligArrayOff := markArrayOff + len(markArray)

	header[2], header[3] = byte(markCovOff>>8), byte(markCovOff)
	header[4], header[5] = byte(ligCovOff>>8), byte(ligCovOff)
	header[8], header[9] = byte(markArrayOff>>8), byte(markArrayOff)
	header[10], header[11] = byte(ligArrayOff>>8), byte(ligArrayOff)

	data := append(header, markCov...)
	data = append(data, ligCov...)
	data = append(data, markArray...)
	data = append(data, ligArray...)
	return data
}

func TestApplyMarkToLigatureSetsOffsetFromComponentZero(t *testing.T) {
	data := buildMarkToLigature(50, 300, 3, 4, 60, 90)

	a := newTestAlbum(t, []GlyphID{300, 50}, nil) // ligature at 0, mark at 1
	a.StartArranging()
	loc := NewLocator(a, nil)
	loc.Reserve(0, nil)
	loc.Reset(0, 2)
	loc.MoveNext()
	loc.MoveNext()

	if !applyMarkToLigature(data, a, loc) {
		t.Fatal("expected mark-to-ligature attachment to match covered mark and ligature glyphs")
	}
	if a.positions[1].X != 57 { // ligX 60 - markX 3
		t.Fatalf("positions[1].X = %d, want 57", a.positions[1].X)
	}
	if a.positions[1].Y != 86 { // ligY 90 - markY 4
		t.Fatalf("positions[1].Y = %d, want 86", a.positions[1].Y)
	}
	if a.GetAttachmentOffset(1) != -1 {
		t.Fatalf("GetAttachmentOffset(1) = %d, want -1", a.GetAttachmentOffset(1))
	}
}
