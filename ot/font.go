package ot

// Font is the external collaborator DiscoverGlyphs consults for raw
// table bytes, code-point-to-glyph mapping and glyph advances (§6
// "Font protocol"). It is deliberately thin: font file demultiplexing
// and glyph-ID assignment live outside this engine's scope (§1); the
// engine only ever reads big-endian GSUB/GPOS/GDEF bytes handed to it
// through LoadTable.
type Font interface {
	// LoadTable returns the raw bytes of the table named by tag, or
	// ErrTableNotFound if the font does not carry it.
	LoadTable(tag Tag) ([]byte, error)

	// GlyphIDForCodepoint returns the glyph ID the font's cmap-equivalent
	// maps cp to, or 0 (notdef) if unmapped.
	GlyphIDForCodepoint(cp Codepoint) GlyphID

	// AdvanceForGlyph returns the default (unshaped) advance of gid, in
	// font units.
	AdvanceForGlyph(gid GlyphID) int32
}
