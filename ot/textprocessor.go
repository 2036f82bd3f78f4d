package ot

// TextProcessor sequences an Album through the four phases of §4.5:
// discovery, substitution, positioning and wrap-up. It owns no state of
// its own beyond the collaborators handed to NewTextProcessor; all
// mutable state lives on the Album being processed, so a single
// TextProcessor can drive many albums.
//
// Grounded on the teacher's shapeText/Shape entry point (ot/shaper.go),
// restated against Album/Locator/Pattern instead of Buffer/OTMap.
type TextProcessor struct {
	font      Font
	gdef      *GDEF
	gsub      *GSUB
	gpos      *GPOS
	decorator JoiningDecorator
}

// NewTextProcessor builds a processor from parsed tables. gsub and gpos
// may be nil if the font lacks the corresponding table; decorator may be
// nil, in which case NopDecorator is used.
func NewTextProcessor(font Font, gdef *GDEF, gsub *GSUB, gpos *GPOS, decorator JoiningDecorator) *TextProcessor {
	if decorator == nil {
		decorator = NopDecorator{}
	}
	return &TextProcessor{font: font, gdef: gdef, gsub: gsub, gpos: gpos, decorator: decorator}
}

// Process runs all four phases over album against pattern, in order.
// album must already hold code points via Reset.
func (tp *TextProcessor) Process(album *Album, pattern *Pattern) {
	tp.DiscoverGlyphs(album, pattern.Script)
	tp.SubstituteGlyphs(album, pattern)
	tp.PositionGlyphs(album, pattern)
	tp.WrapUp(album)
}

// DiscoverGlyphs maps every code point to an initial glyph, stamps its
// GDEF-derived traits, and runs the joining decorator (§4.5 "Discover").
func (tp *TextProcessor) DiscoverGlyphs(album *Album, script Tag) {
	tracer().Debugf("discover: %d code points, script %s", album.CodePointCount(), script)
	album.StartFilling()
	n := album.CodePointCount()
	for i := 0; i < n; i++ {
		cp := Codepoint(album.CodePoint(i))
		gid := tp.font.GlyphIDForCodepoint(cp)
		album.AddGlyph(gid, i)
	}

	for i := 0; i < album.GlyphCount(); i++ {
		gid := album.GetGlyph(i)
		switch tp.gdef.GlyphClass(gid) {
		case GlyphClassBase:
			album.InsertTraits(i, TraitBase)
		case GlyphClassLigature:
			album.InsertTraits(i, TraitLigature)
		case GlyphClassMark:
			album.InsertTraits(i, TraitMark)
		case GlyphClassComponent:
			album.InsertTraits(i, TraitComponent)
		}
	}

	tp.decorator.Decorate(album, script)
}

// SubstituteGlyphs walks the pattern's substitution units over the GSUB
// table, gating each lookup by the active feature mask (§4.5
// "Substitute", §4.3 "Feature gating").
func (tp *TextProcessor) SubstituteGlyphs(album *Album, pattern *Pattern) {
	tracer().Debugf("substitute: %d feature units", len(pattern.SubstitutionUnits))
	album.StopFilling()
	if tp.gsub == nil {
		return
	}
	for _, unit := range pattern.SubstitutionUnits {
		for _, lookupIndex := range unit.LookupIndices {
			reverse := tp.gsub.LookupType(int(lookupIndex)) == GSUBReverseChainSingle
			tracer().Debugf("apply GSUB lookup %d (mask %#04x, reverse %v)", lookupIndex, unit.Mask, reverse)
			tp.walkLookup(tp.gsub, album, int(lookupIndex), unit.Mask, reverse)
		}
	}
}

// PositionGlyphs walks the pattern's positioning units over the GPOS
// table, then resolves both the cursive-attachment and mark-attachment
// chains that GPOS lookups can only record as relative offsets (§4.5
// "Position").
func (tp *TextProcessor) PositionGlyphs(album *Album, pattern *Pattern) {
	tracer().Debugf("position: %d feature units", len(pattern.PositioningUnits))
	album.StartArranging()
	if tp.gpos != nil {
		for _, unit := range pattern.PositioningUnits {
			for _, lookupIndex := range unit.LookupIndices {
				tracer().Debugf("apply GPOS lookup %d (mask %#04x)", lookupIndex, unit.Mask)
				tp.walkLookup(tp.gpos, album, int(lookupIndex), unit.Mask, false)
			}
		}
	}
	resolveCursiveChains(album)
	resolveAttachmentChains(album)
}

// WrapUp excises placeholders, rebuilds the code-point-to-glyph map and
// closes out the arranging phase (§4.5 "Wrap up").
func (tp *TextProcessor) WrapUp(album *Album) {
	tracer().Debugf("wrap up: %d glyphs before placeholder removal", album.GlyphCount())
	album.RemovePlaceholders()
	album.BuildCodePointToGlyphMap()
	album.StopArranging()
}

// lookupApplier is the seam context.go's RunSpecs invokes nested lookups
// through; GSUB and GPOS both satisfy it.
type lookupApplier interface {
	LookupApplier
	LookupFlagAndMarkSet(lookupIndex int) (uint16, *Coverage)
}

// walkLookup drives one top-level lookup application across album,
// honoring the feature mask carried by each position and re-anchoring
// the locator whenever a substitution changes the glyph count.
func (tp *TextProcessor) walkLookup(applier lookupApplier, album *Album, lookupIndex int, mask uint16, reverse bool) {
	flag, markSet := applier.LookupFlagAndMarkSet(lookupIndex)
	loc := NewLocator(album, tp.gdef)
	loc.Reserve(flag, markSet)
	loc.Reset(0, album.GlyphCount())

	if !reverse {
		for loc.MoveNext() {
			idx := loc.Index()
			if !qualifies(album.GetFeatureMask(idx), mask) {
				continue
			}
			before := album.GlyphCount()
			if applier.ApplyLookupAt(lookupIndex, album, loc, 0) {
				loc.limit += album.GlyphCount() - before
				loc.version = album.Version()
			}
		}
		return
	}

	// Reverse-chaining single substitution (GSUB type 8) matches and
	// replaces right to left per its OpenType definition.
	for idx := album.GlyphCount() - 1; idx >= 0; idx-- {
		if loc.filtered(idx) {
			continue
		}
		if !qualifies(album.GetFeatureMask(idx), mask) {
			continue
		}
		loc.JumpTo(idx)
		applier.ApplyLookupAt(lookupIndex, album, loc, 0)
	}
}

// qualifies reports whether a position carrying glyphMask should be
// touched by a feature unit carrying unitMask (§4.3). The empty
// sentinel mask matches every unit, mirroring AntiFeatureMask(0).
func qualifies(glyphMask, unitMask uint16) bool {
	return glyphMask == featureMaskEmpty || glyphMask&unitMask != 0
}

// resolveCursiveChains threads the y-offsets GPOS cursive-attachment
// lookups recorded on individual glyphs (applyCursivePos) along their
// cursiveOffset links, left to right, so a chain of several cursively
// joined glyphs ends up with cumulative rather than pairwise-only
// vertical placement. A glyph carrying TraitRightToLeft threads the
// offset onto itself instead of its partner, approximating RTL cursive
// runs without a dedicated reverse pass.
func resolveCursiveChains(album *Album) {
	n := album.GlyphCount()
	for i := 0; i < n; i++ {
		off := album.GetCursiveOffset(i)
		if off == 0 {
			continue
		}
		target := i + int(off)
		if target < 0 || target >= n {
			continue
		}
		if album.GetTraits(i)&TraitRightToLeft != 0 {
			album.positions[i].Y += album.positions[target].Y
		} else {
			album.positions[target].Y += album.positions[i].Y
		}
	}
}

// resolveAttachmentChains threads the x/y deltas GPOS mark-to-base,
// mark-to-ligature and mark-to-mark lookups recorded on individual
// marks (applyMarkToAttach, applyMarkToLigature) along their
// attachmentOffset links, so a mark attached to another mark inherits
// that mark's own resolved offset rather than only its immediate
// anchor delta. Resolution is recursive, parent before child, mirroring
// the teacher's propagateAttachmentOffsetsRecursive; a resolved set
// guards against cyclic or self-referential offsets in a malformed
// font.
func resolveAttachmentChains(album *Album) {
	n := album.GlyphCount()
	resolved := make([]bool, n)
	for i := 0; i < n; i++ {
		resolveAttachmentChainAt(album, i, resolved)
	}
}

func resolveAttachmentChainAt(album *Album, i int, resolved []bool) {
	if resolved[i] {
		return
	}
	resolved[i] = true

	off := album.GetAttachmentOffset(i)
	if off == 0 {
		return
	}
	target := i + int(off)
	n := album.GlyphCount()
	if target < 0 || target >= n || target == i {
		return
	}
	resolveAttachmentChainAt(album, target, resolved)
	album.positions[i].X += album.positions[target].X
	album.positions[i].Y += album.positions[target].Y
}
