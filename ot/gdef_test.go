package ot

import "testing"

// buildGDEF assembles a minimal GDEF table: version 1.0, a ClassDef
// format 2 for GlyphClassDef, no MarkAttachClassDef, no MarkGlyphSetDef.
func buildGDEF(t *testing.T) []byte {
	t.Helper()

	var classDef []byte
	classDef = be16(classDef, 2) // format
	classDef = be16(classDef, 1) // range count
	classDef = be16(classDef, 5) // startGlyph
	classDef = be16(classDef, 5) // endGlyph
	classDef = be16(classDef, GlyphClassLigature)

	var header []byte
	header = be16(header, 1) // majorVersion
	header = be16(header, 0) // minorVersion
	glyphClassOff := len(header) + 8 // 4 more uint16 fields (incl. this one) follow
	header = be16(header, uint16(glyphClassOff))
	header = be16(header, 0) // attachListOffset, unused
	header = be16(header, 0) // ligCaretListOffset, unused
	header = be16(header, 0) // markAttachClassDefOffset

	return append(header, classDef...)
}

func TestParseGDEFResolvesGlyphClass(t *testing.T) {
	data := buildGDEF(t)
	g := ParseGDEF(data)

	if got := g.GlyphClass(5); got != GlyphClassLigature {
		t.Fatalf("GlyphClass(5) = %d, want %d (ligature)", got, GlyphClassLigature)
	}
	if got := g.GlyphClass(6); got != GlyphClassUnclassified {
		t.Fatalf("GlyphClass(6) = %d, want unclassified", got)
	}
	if !g.HasGlyphClasses() {
		t.Fatal("expected HasGlyphClasses to report true")
	}
	if major, minor := g.Version(); major != 1 || minor != 0 {
		t.Fatalf("Version() = %d.%d, want 1.0", major, minor)
	}
}

func TestParseGDEFMalformedTableDegradesGracefully(t *testing.T) {
	g := ParseGDEF([]byte{1, 2, 3})
	if g.HasGlyphClasses() {
		t.Fatal("a truncated table should not report glyph classes")
	}
	if got := g.GlyphClass(1); got != GlyphClassUnclassified {
		t.Fatalf("GlyphClass on a malformed table = %d, want unclassified", got)
	}
	if got := g.MarkAttachClass(1); got != 0 {
		t.Fatalf("MarkAttachClass on a malformed table = %d, want 0", got)
	}
}

func TestNilGDEFReportsUnclassifiedAndNoMarkSets(t *testing.T) {
	var g *GDEF
	if g.HasGlyphClasses() {
		t.Fatal("nil GDEF must report no glyph classes")
	}
	if got := g.GlyphClass(1); got != GlyphClassUnclassified {
		t.Fatalf("GlyphClass on nil GDEF = %d, want unclassified", got)
	}
	if g.MarkGlyphSetCount() != 0 {
		t.Fatal("nil GDEF must report zero mark glyph sets")
	}
	if g.IsInMarkGlyphSet(1, 0) {
		t.Fatal("nil GDEF must never report mark glyph set membership")
	}
}
