package ot

// GDEF — the Glyph Definition table.
//
// Layout grounded on original_source/Source/SFGDEF.h and expressed
// against the Reader/Coverage helpers already built for GSUB/GPOS, in
// the same style as the teacher's small top-level table parsers
// (ParseFont, ParseCoverage).

// Glyph class values per §6/original_source SFGlyphClassValue.
const (
	GlyphClassUnclassified = 0
	GlyphClassBase         = 1
	GlyphClassLigature     = 2
	GlyphClassMark         = 3
	GlyphClassComponent    = 4
)

// GDEF holds the parsed Glyph Definition table.
type GDEF struct {
	versionMajor, versionMinor uint16

	glyphClassDef      *ClassDef
	markAttachClassDef *ClassDef
	markGlyphSets      []*Coverage // version >= 1.2 only
}

// ParseGDEF parses a GDEF table from raw big-endian bytes. An empty or
// malformed table yields a GDEF with no classes defined rather than an
// error: GDEF is optional and its absence must not fail shaping (§7).
func ParseGDEF(data []byte) *GDEF {
	g := &GDEF{}
	if len(data) < 12 {
		return g
	}
	version, ok := U32At(data, 0)
	if !ok {
		return g
	}
	g.versionMajor = uint16(version >> 16)
	g.versionMinor = uint16(version)

	if off, ok := U16At(data, 4); ok && off != 0 {
		g.glyphClassDef = ParseClassDef(data, int(off))
	}
	if off, ok := U16At(data, 10); ok && off != 0 {
		g.markAttachClassDef = ParseClassDef(data, int(off))
	}
	if g.versionMajor == 1 && g.versionMinor >= 2 && len(data) >= 14 {
		if off, ok := U16At(data, 12); ok && off != 0 {
			g.markGlyphSets = parseMarkGlyphSetsDef(data, int(off))
		}
	}
	return g
}

func parseMarkGlyphSetsDef(data []byte, offset int) []*Coverage {
	b := sub(data, offset)
	if b == nil {
		return nil
	}
	r := NewReader(b)
	format := r.U16()
	if format != 1 {
		return nil
	}
	count := int(r.U16())
	sets := make([]*Coverage, 0, count)
	for i := 0; i < count; i++ {
		covOff := r.U32()
		if r.Err() != nil {
			return sets
		}
		sets = append(sets, ParseCoverage(b, int(covOff)))
	}
	return sets
}

// Version returns the GDEF table version.
func (g *GDEF) Version() (major, minor uint16) {
	if g == nil {
		return 0, 0
	}
	return g.versionMajor, g.versionMinor
}

// HasGlyphClasses reports whether the table defines a GlyphClassDef.
func (g *GDEF) HasGlyphClasses() bool { return g != nil && g.glyphClassDef != nil }

// GlyphClass returns the GDEF glyph class of glyph (0 = unclassified).
// A nil GDEF (table absent from the font) always reports unclassified.
func (g *GDEF) GlyphClass(glyph GlyphID) int {
	if g == nil || g.glyphClassDef == nil {
		return GlyphClassUnclassified
	}
	return int(g.glyphClassDef.Class(glyph))
}

// MarkAttachClass returns the mark-attachment class of glyph (0 = none).
func (g *GDEF) MarkAttachClass(glyph GlyphID) int {
	if g == nil || g.markAttachClassDef == nil {
		return 0
	}
	return int(g.markAttachClassDef.Class(glyph))
}

// MarkGlyphSetCount returns the number of mark filtering sets defined.
func (g *GDEF) MarkGlyphSetCount() int {
	if g == nil {
		return 0
	}
	return len(g.markGlyphSets)
}

// IsInMarkGlyphSet reports whether glyph belongs to mark filtering set
// setIndex. An out-of-range setIndex never matches.
func (g *GDEF) IsInMarkGlyphSet(glyph GlyphID, setIndex int) bool {
	if g == nil || setIndex < 0 || setIndex >= len(g.markGlyphSets) {
		return false
	}
	return g.markGlyphSets[setIndex].Contains(glyph)
}
