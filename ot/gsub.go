package ot

// GSUB — the Glyph Substitution lookup dispatcher (§4.3 GSUB types).
//
// Grounded on the teacher's gsub.go (ParseGSUB, per-type apply
// functions operating on a Buffer) restated against Album+Locator:
// each type reads its subtable's format word and branches, same as
// the teacher, but mutates the parallel-array Album instead of the
// array-of-structs Buffer.

// GSUB lookup types, per the OpenType GSUB table.
const (
	GSUBSingle            = 1
	GSUBMultiple          = 2
	GSUBAlternate         = 3
	GSUBLigature          = 4
	GSUBContext           = 5
	GSUBChainContext      = 6
	GSUBExtension         = 7
	GSUBReverseChainSingle = 8
)

// GSUB holds a parsed GSUB table: its script/feature/lookup
// directories plus a GDEF for mark filtering set resolution.
type GSUB struct {
	data       []byte
	layout     layoutTable
	gdef       *GDEF
	maxNesting int // set by NewShaper from its ShaperOptions; 0 means MaxContextNesting
}

// ParseGSUB parses a GSUB table from raw bytes.
func ParseGSUB(data []byte, gdef *GDEF) *GSUB {
	return &GSUB{data: data, layout: parseLayoutTable(data), gdef: gdef}
}

// MaxNesting reports the recursion bound for nested lookups applied
// through this table (§4.4), implementing LookupApplier.
func (g *GSUB) MaxNesting() int {
	if g.maxNesting <= 0 {
		return MaxContextNesting
	}
	return g.maxNesting
}

// LookupCount returns the number of lookups in the table.
func (g *GSUB) LookupCount() int { return g.layout.lookupList.Count() }

// LookupType returns the lookup type of lookupIndex, or 0 if invalid.
// Callers use this to decide walk direction: type 8 (Reverse Chain
// Single) walks the album right-to-left (§4.3).
func (g *GSUB) LookupType(lookupIndex int) uint16 {
	h := g.layout.lookupList.Header(lookupIndex)
	if h == nil {
		return 0
	}
	return h.Type
}

// LookupFlagAndMarkSet returns the lookup flag and resolved mark
// filtering coverage for lookupIndex, so a caller driving the
// top-level walk (the text processor) can prime its own locator before
// the first ApplyLookupAt call.
func (g *GSUB) LookupFlagAndMarkSet(lookupIndex int) (uint16, *Coverage) {
	h := g.layout.lookupList.Header(lookupIndex)
	if h == nil {
		return 0, nil
	}
	return h.Flag, g.resolveMarkSet(h)
}

func (g *GSUB) resolveMarkSet(h *LookupHeader) *Coverage {
	if h.Flag&LookupFlagUseMarkFilteringSet == 0 {
		return nil
	}
	idx := int(h.MarkFilterSet)
	if g.gdef == nil || idx < 0 || idx >= g.gdef.MarkGlyphSetCount() {
		return nil
	}
	return g.gdef.markGlyphSets[idx]
}

// ApplyLookupAt attempts to apply lookupIndex at loc's current
// position, trying each subtable in order until one matches (§4.3:
// "the first matching subtable applies"). Implements LookupApplier so
// the context matcher can invoke nested GSUB lookups.
func (g *GSUB) ApplyLookupAt(lookupIndex int, album *Album, loc *Locator, depth int) bool {
	header := g.layout.lookupList.Header(lookupIndex)
	if header == nil {
		return false
	}
	loc.Reserve(header.Flag, g.resolveMarkSet(header))
	if loc.Index() == InvalidIndex {
		return false
	}
	for i := 0; i < len(header.SubtableOffsets); i++ {
		data := header.Subtable(i)
		if data == nil {
			continue
		}
		if g.applySubtable(header.Type, data, album, loc, depth) {
			return true
		}
	}
	return false
}

func (g *GSUB) applySubtable(lookupType uint16, data []byte, album *Album, loc *Locator, depth int) bool {
	switch lookupType {
	case GSUBSingle:
		return applySingleSub(data, album, loc)
	case GSUBMultiple:
		return applyMultipleSub(data, album, loc)
	case GSUBAlternate:
		return applyAlternateSub(data, album, loc)
	case GSUBLigature:
		return applyLigatureSub(data, album, loc)
	case GSUBContext:
		return applyContextSub(data, album, loc, g, depth)
	case GSUBChainContext:
		return applyChainContextSub(data, album, loc, g, depth)
	case GSUBExtension:
		return applyExtension(data, album, loc, g, depth, g.applySubtable)
	case GSUBReverseChainSingle:
		return applyReverseChainSingle(data, album, loc)
	default:
		return false
	}
}

func applySingleSub(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	format := r.U16()
	switch format {
	case 1:
		covOff := r.U16()
		delta := r.I16()
		if r.Err() != nil {
			return false
		}
		cov := ParseCoverage(data, int(covOff))
		gid := album.GetGlyph(loc.Index())
		if !cov.Contains(gid) {
			return false
		}
		album.SetGlyph(loc.Index(), GlyphID(int(gid)+int(delta)))
		album.InsertTraits(loc.Index(), TraitSubstituted)
		return true
	case 2:
		covOff := r.U16()
		count := int(r.U16())
		substitutes := make([]GlyphID, count)
		for i := range substitutes {
			substitutes[i] = r.U16()
		}
		if r.Err() != nil {
			return false
		}
		cov := ParseCoverage(data, int(covOff))
		gid := album.GetGlyph(loc.Index())
		idx := cov.Index(gid)
		if idx < 0 || idx >= len(substitutes) {
			return false
		}
		album.SetGlyph(loc.Index(), substitutes[idx])
		album.InsertTraits(loc.Index(), TraitSubstituted)
		return true
	default:
		return false
	}
}

func applyMultipleSub(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	covOff := r.U16()
	seqCount := int(r.U16())
	seqOffsets := make([]int, seqCount)
	for i := range seqOffsets {
		seqOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return false
	}
	cov := ParseCoverage(data, int(covOff))
	idx := cov.Index(album.GetGlyph(loc.Index()))
	if idx < 0 || idx >= len(seqOffsets) {
		return false
	}
	seqBytes := sub(data, seqOffsets[idx])
	if seqBytes == nil {
		return false
	}
	rs := NewReader(seqBytes)
	count := int(rs.U16())
	gids := make([]GlyphID, count)
	for i := range gids {
		gids[i] = rs.U16()
	}
	if rs.Err() != nil || count == 0 {
		return false
	}

	index := loc.Index()
	origAssoc := album.GetAssociation(index)
	if count > 1 {
		album.ReserveGlyphs(index+1, count-1)
	}
	for i := 0; i < count; i++ {
		album.SetGlyph(index+i, gids[i])
		album.SetSingleAssociation(index+i, origAssoc)
		album.InsertTraits(index+i, TraitMultiplied|TraitSubstituted)
	}
	return true
}

func applyAlternateSub(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	covOff := r.U16()
	setCount := int(r.U16())
	setOffsets := make([]int, setCount)
	for i := range setOffsets {
		setOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return false
	}
	cov := ParseCoverage(data, int(covOff))
	idx := cov.Index(album.GetGlyph(loc.Index()))
	if idx < 0 || idx >= len(setOffsets) {
		return false
	}
	setBytes := sub(data, setOffsets[idx])
	if setBytes == nil {
		return false
	}
	rs := NewReader(setBytes)
	count := int(rs.U16())
	alts := make([]GlyphID, count)
	for i := range alts {
		alts[i] = rs.U16()
	}
	if rs.Err() != nil || count == 0 {
		return false
	}
	// Policy: first alternate, unless an external selector applies
	// (out of scope here, §4.3).
	album.SetGlyph(loc.Index(), alts[0])
	album.InsertTraits(loc.Index(), TraitSubstituted)
	return true
}

func applyLigatureSub(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	covOff := r.U16()
	ligSetCount := int(r.U16())
	ligSetOffsets := make([]int, ligSetCount)
	for i := range ligSetOffsets {
		ligSetOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return false
	}
	cov := ParseCoverage(data, int(covOff))
	idx := cov.Index(album.GetGlyph(loc.Index()))
	if idx < 0 || idx >= len(ligSetOffsets) {
		return false
	}
	setBytes := sub(data, ligSetOffsets[idx])
	if setBytes == nil {
		return false
	}
	rs := NewReader(setBytes)
	ligCount := int(rs.U16())
	ligOffsets := make([]int, ligCount)
	for i := range ligOffsets {
		ligOffsets[i] = int(rs.U16())
	}
	if rs.Err() != nil {
		return false
	}

	for _, ligOff := range ligOffsets {
		ligBytes := sub(setBytes, ligOff)
		if ligBytes == nil {
			continue
		}
		rl := NewReader(ligBytes)
		ligGlyph := rl.U16()
		compCount := int(rl.U16())
		comps := make([]GlyphID, 0, compCount-1)
		for i := 1; i < compCount; i++ {
			comps = append(comps, rl.U16())
		}
		if rl.Err() != nil {
			continue
		}
		if applyLigatureMatch(album, loc, ligGlyph, comps) {
			return true
		}
	}
	return false
}

// applyLigatureMatch walks comps forward from loc's current position
// and, on a full match, collapses the matched glyphs into one ligature
// glyph: the first index is overwritten and marked composite with the
// matched associations gathered in input order; the remaining matched
// indices are marked Placeholder for removal at wrap-up (§4.3 GSUB
// type 4).
func applyLigatureMatch(album *Album, loc *Locator, ligGlyph GlyphID, comps []GlyphID) bool {
	start := loc.Index()
	indices := make([]int, 0, len(comps)+1)
	indices = append(indices, start)
	cur := start
	for _, c := range comps {
		next := loc.GetAfter(cur)
		if next == InvalidIndex || album.GetGlyph(next) != c {
			return false
		}
		indices = append(indices, next)
		cur = next
	}

	var assocs []int32
	for _, ix := range indices {
		if album.IsComposite(ix) {
			assocs = append(assocs, album.GetCompositeAssociations(ix)...)
		} else {
			assocs = append(assocs, int32(album.GetAssociation(ix)))
		}
	}
	dest := album.MakeCompositeAssociations(start, len(assocs))
	copy(dest, assocs)

	album.SetGlyph(start, ligGlyph)
	album.InsertTraits(start, TraitLigature|TraitLigated|TraitSubstituted)
	for _, ix := range indices[1:] {
		album.InsertTraits(ix, TraitPlaceholder)
	}
	return true
}

func applyContextSub(data []byte, album *Album, loc *Locator, applier LookupApplier, depth int) bool {
	format, ok := U16At(data, 0)
	if !ok {
		return false
	}
	gid := album.GetGlyph(loc.Index())
	switch format {
	case 1:
		d := parseContextFormat1(data)
		if d == nil {
			return false
		}
		return RunSpecs(d.specsFor(gid), album, loc, applier, depth)
	case 2:
		d := parseContextFormat2(data)
		if d == nil {
			return false
		}
		return RunSpecs(d.specsFor(gid), album, loc, applier, depth)
	case 3:
		spec := parseContextFormat3(data)
		if spec == nil {
			return false
		}
		return RunSpecs([]*sequenceSpec{spec}, album, loc, applier, depth)
	default:
		return false
	}
}

func applyChainContextSub(data []byte, album *Album, loc *Locator, applier LookupApplier, depth int) bool {
	format, ok := U16At(data, 0)
	if !ok {
		return false
	}
	gid := album.GetGlyph(loc.Index())
	switch format {
	case 1:
		d := parseChainContextFormat1(data)
		if d == nil {
			return false
		}
		return RunSpecs(d.specsFor(gid), album, loc, applier, depth)
	case 2:
		d := parseChainContextFormat2(data)
		if d == nil {
			return false
		}
		return RunSpecs(d.specsFor(gid), album, loc, applier, depth)
	case 3:
		spec := parseChainContextFormat3(data)
		if spec == nil {
			return false
		}
		return RunSpecs([]*sequenceSpec{spec}, album, loc, applier, depth)
	default:
		return false
	}
}

// applyExtension reads an Extension subtable's inner lookup type and
// offset and redispatches to inner, per §4.3 GSUB/GPOS type 7/9.
func applyExtension(data []byte, album *Album, loc *Locator, applier LookupApplier, depth int, dispatch func(uint16, []byte, *Album, *Locator, int) bool) bool {
	format, ok := U16At(data, 0)
	if !ok || format != 1 {
		return false
	}
	innerType, ok := U16At(data, 2)
	if !ok {
		return false
	}
	innerOff, ok := U32At(data, 4)
	if !ok {
		return false
	}
	inner := sub(data, int(innerOff))
	if inner == nil {
		return false
	}
	return dispatch(innerType, inner, album, loc, depth)
}

func applyReverseChainSingle(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	covOff := r.U16()
	backtrackCount := int(r.U16())
	backtrackOffsets := make([]int, backtrackCount)
	for i := range backtrackOffsets {
		backtrackOffsets[i] = int(r.U16())
	}
	lookaheadCount := int(r.U16())
	lookaheadOffsets := make([]int, lookaheadCount)
	for i := range lookaheadOffsets {
		lookaheadOffsets[i] = int(r.U16())
	}
	glyphCount := int(r.U16())
	substitutes := make([]GlyphID, glyphCount)
	for i := range substitutes {
		substitutes[i] = r.U16()
	}
	if r.Err() != nil {
		return false
	}

	cov := ParseCoverage(data, int(covOff))
	idx := cov.Index(album.GetGlyph(loc.Index()))
	if idx < 0 || idx >= len(substitutes) {
		return false
	}

	cur := loc.Index()
	for _, off := range backtrackOffsets {
		prev := loc.GetBefore(cur)
		if prev == InvalidIndex || !ParseCoverage(data, off).Contains(album.GetGlyph(prev)) {
			return false
		}
		cur = prev
	}
	cur = loc.Index()
	for _, off := range lookaheadOffsets {
		next := loc.GetAfter(cur)
		if next == InvalidIndex || !ParseCoverage(data, off).Contains(album.GetGlyph(next)) {
			return false
		}
		cur = next
	}

	album.SetGlyph(loc.Index(), substitutes[idx])
	album.InsertTraits(loc.Index(), TraitSubstituted)
	return true
}
