package ot

// GPOS — the Glyph Positioning lookup dispatcher (§4.3 GPOS types).
//
// Grounded on the teacher's gpos.go (value record decoding, anchor
// tables, mark attachment) restated against Album+Locator: position
// adjustments are written to the album's positions/advances arrays
// instead of a Buffer's GlyphInfo.Pos, and mark/cursive linkage is
// recorded via the details entry's attachmentOffset/cursiveOffset
// fields per §3/§4.3 rather than an out-of-band side table.

// GPOS lookup types, per the OpenType GPOS table.
const (
	GPOSSingle       = 1
	GPOSPair         = 2
	GPOSCursive      = 3
	GPOSMarkToBase   = 4
	GPOSMarkToLigature = 5
	GPOSMarkToMark   = 6
	GPOSContext      = 7
	GPOSChainContext = 8
	GPOSExtension    = 9
)

// Value record format bits (§6).
const (
	valueFmtXPlacement uint16 = 0x0001
	valueFmtYPlacement uint16 = 0x0002
	valueFmtXAdvance   uint16 = 0x0004
	valueFmtYAdvance   uint16 = 0x0008
	valueFmtXPlaDevice uint16 = 0x0010
	valueFmtYPlaDevice uint16 = 0x0020
	valueFmtXAdvDevice uint16 = 0x0040
	valueFmtYAdvDevice uint16 = 0x0080
)

// GPOS holds a parsed GPOS table.
type GPOS struct {
	data       []byte
	layout     layoutTable
	gdef       *GDEF
	maxNesting int // set by NewShaper from its ShaperOptions; 0 means MaxContextNesting
}

// ParseGPOS parses a GPOS table from raw bytes.
func ParseGPOS(data []byte, gdef *GDEF) *GPOS {
	return &GPOS{data: data, layout: parseLayoutTable(data), gdef: gdef}
}

// MaxNesting reports the recursion bound for nested lookups applied
// through this table (§4.4), implementing LookupApplier.
func (p *GPOS) MaxNesting() int {
	if p.maxNesting <= 0 {
		return MaxContextNesting
	}
	return p.maxNesting
}

// LookupCount returns the number of lookups in the table.
func (p *GPOS) LookupCount() int { return p.layout.lookupList.Count() }

// LookupFlagAndMarkSet returns the lookup flag and resolved mark
// filtering coverage for lookupIndex, so a caller driving the
// top-level walk (the text processor) can prime its own locator before
// the first ApplyLookupAt call.
func (p *GPOS) LookupFlagAndMarkSet(lookupIndex int) (uint16, *Coverage) {
	h := p.layout.lookupList.Header(lookupIndex)
	if h == nil {
		return 0, nil
	}
	return h.Flag, p.resolveMarkSet(h)
}

func (p *GPOS) resolveMarkSet(h *LookupHeader) *Coverage {
	if h.Flag&LookupFlagUseMarkFilteringSet == 0 {
		return nil
	}
	idx := int(h.MarkFilterSet)
	if p.gdef == nil || idx < 0 || idx >= p.gdef.MarkGlyphSetCount() {
		return nil
	}
	return p.gdef.markGlyphSets[idx]
}

// ApplyLookupAt attempts to apply lookupIndex at loc's current
// position. Implements LookupApplier for nested context application.
func (p *GPOS) ApplyLookupAt(lookupIndex int, album *Album, loc *Locator, depth int) bool {
	header := p.layout.lookupList.Header(lookupIndex)
	if header == nil {
		return false
	}
	loc.Reserve(header.Flag, p.resolveMarkSet(header))
	if loc.Index() == InvalidIndex {
		return false
	}
	for i := 0; i < len(header.SubtableOffsets); i++ {
		data := header.Subtable(i)
		if data == nil {
			continue
		}
		if p.applySubtable(header.Type, data, album, loc, depth) {
			return true
		}
	}
	return false
}

func (p *GPOS) applySubtable(lookupType uint16, data []byte, album *Album, loc *Locator, depth int) bool {
	switch lookupType {
	case GPOSSingle:
		return applySinglePos(data, album, loc)
	case GPOSPair:
		return applyPairPos(data, album, loc)
	case GPOSCursive:
		return applyCursivePos(data, album, loc)
	case GPOSMarkToBase, GPOSMarkToMark:
		return applyMarkToAttach(data, album, loc)
	case GPOSMarkToLigature:
		return applyMarkToLigature(data, album, loc)
	case GPOSContext:
		return applyContextSub(data, album, loc, p, depth)
	case GPOSChainContext:
		return applyChainContextSub(data, album, loc, p, depth)
	case GPOSExtension:
		return applyExtension(data, album, loc, p, depth, p.applySubtable)
	default:
		return false
	}
}

func readValueRecord(r *Reader, format uint16) (dx, dy, dxAdv, dyAdv int32) {
	if format&valueFmtXPlacement != 0 {
		dx = int32(r.I16())
	}
	if format&valueFmtYPlacement != 0 {
		dy = int32(r.I16())
	}
	if format&valueFmtXAdvance != 0 {
		dxAdv = int32(r.I16())
	}
	if format&valueFmtYAdvance != 0 {
		dyAdv = int32(r.I16())
	}
	// Device/variation-index tables are read past but not applied:
	// variable-font axis interpolation is a non-goal (§1).
	if format&valueFmtXPlaDevice != 0 {
		r.Skip(2)
	}
	if format&valueFmtYPlaDevice != 0 {
		r.Skip(2)
	}
	if format&valueFmtXAdvDevice != 0 {
		r.Skip(2)
	}
	if format&valueFmtYAdvDevice != 0 {
		r.Skip(2)
	}
	return
}

func applyValueRecord(album *Album, index int, dx, dy, dxAdv int32) {
	album.positions[index].X += dx
	album.positions[index].Y += dy
	album.advances[index] += dxAdv
}

func applySinglePos(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	format := r.U16()
	switch format {
	case 1:
		covOff := r.U16()
		valueFormat := r.U16()
		dx, dy, dxAdv, dyAdv := readValueRecord(r, valueFormat)
		if r.Err() != nil {
			return false
		}
		cov := ParseCoverage(data, int(covOff))
		if !cov.Contains(album.GetGlyph(loc.Index())) {
			return false
		}
		applyValueRecord(album, loc.Index(), dx, dy, dxAdv)
		_ = dyAdv
		return true
	case 2:
		covOff := r.U16()
		valueFormat := r.U16()
		count := int(r.U16())
		cov := ParseCoverage(data, int(covOff))
		idx := cov.Index(album.GetGlyph(loc.Index()))
		if idx < 0 || idx >= count {
			return false
		}
		// Value records are fixed-size once the format is known, so
		// skip straight to the selected one.
		recSize := valueRecordSize(valueFormat)
		r.Skip(idx * recSize)
		dx, dy, dxAdv, dyAdv := readValueRecord(r, valueFormat)
		if r.Err() != nil {
			return false
		}
		applyValueRecord(album, loc.Index(), dx, dy, dxAdv)
		_ = dyAdv
		return true
	default:
		return false
	}
}

func valueRecordSize(format uint16) int {
	n := 0
	for b := uint16(1); b != 0x100; b <<= 1 {
		if format&b != 0 {
			n += 2
		}
	}
	return n
}

func applyPairPos(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	format := r.U16()
	switch format {
	case 1:
		covOff := r.U16()
		valueFormat1 := r.U16()
		valueFormat2 := r.U16()
		pairSetCount := int(r.U16())
		pairSetOffsets := make([]int, pairSetCount)
		for i := range pairSetOffsets {
			pairSetOffsets[i] = int(r.U16())
		}
		if r.Err() != nil {
			return false
		}
		cov := ParseCoverage(data, int(covOff))
		idx := cov.Index(album.GetGlyph(loc.Index()))
		if idx < 0 || idx >= len(pairSetOffsets) {
			return false
		}
		setBytes := sub(data, pairSetOffsets[idx])
		if setBytes == nil {
			return false
		}
		next := loc.GetAfter(loc.Index())
		if next == InvalidIndex {
			return false
		}
		secondGid := album.GetGlyph(next)

		rs := NewReader(setBytes)
		count := int(rs.U16())
		recSize := 2 + valueRecordSize(valueFormat1) + valueRecordSize(valueFormat2)
		for i := 0; i < count; i++ {
			pr := NewReader(setBytes[2+i*recSize:])
			secondGlyph := pr.U16()
			if secondGlyph != secondGid {
				continue
			}
			dx1, dy1, dxAdv1, _ := readValueRecord(pr, valueFormat1)
			dx2, dy2, dxAdv2, _ := readValueRecord(pr, valueFormat2)
			if pr.Err() != nil {
				return false
			}
			applyValueRecord(album, loc.Index(), dx1, dy1, dxAdv1)
			applyValueRecord(album, next, dx2, dy2, dxAdv2)
			return true
		}
		return false
	case 2:
		covOff := r.U16()
		valueFormat1 := r.U16()
		valueFormat2 := r.U16()
		classDef1Off := r.U16()
		classDef2Off := r.U16()
		class1Count := int(r.U16())
		class2Count := int(r.U16())
		if r.Err() != nil {
			return false
		}
		cov := ParseCoverage(data, int(covOff))
		if !cov.Contains(album.GetGlyph(loc.Index())) {
			return false
		}
		next := loc.GetAfter(loc.Index())
		if next == InvalidIndex {
			return false
		}
		cd1 := ParseClassDef(data, int(classDef1Off))
		cd2 := ParseClassDef(data, int(classDef2Off))
		c1 := int(cd1.Class(album.GetGlyph(loc.Index())))
		c2 := int(cd2.Class(album.GetGlyph(next)))
		if c1 < 0 || c1 >= class1Count || c2 < 0 || c2 >= class2Count {
			return false
		}
		recSize := valueRecordSize(valueFormat1) + valueRecordSize(valueFormat2)
		matrixStart := r.Pos()
		offset := matrixStart + (c1*class2Count+c2)*recSize
		mr := NewReader(data)
		mr.Seek(offset)
		dx1, dy1, dxAdv1, _ := readValueRecord(mr, valueFormat1)
		dx2, dy2, dxAdv2, _ := readValueRecord(mr, valueFormat2)
		if mr.Err() != nil {
			return false
		}
		applyValueRecord(album, loc.Index(), dx1, dy1, dxAdv1)
		applyValueRecord(album, next, dx2, dy2, dxAdv2)
		return true
	default:
		return false
	}
}

func parseAnchor(data []byte, offset int) (x, y int32, ok bool) {
	b := sub(data, offset)
	if b == nil {
		return 0, 0, false
	}
	r := NewReader(b)
	r.Skip(2) // format: only the common x/y prefix is used (§1 non-goals exclude variable-font axis interpolation, which formats 2/3 otherwise add)
	xv := r.I16()
	yv := r.I16()
	if r.Err() != nil {
		return 0, 0, false
	}
	return int32(xv), int32(yv), true
}

func applyCursivePos(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	covOff := r.U16()
	count := int(r.U16())
	type entryExit struct{ entry, exit int }
	entries := make([]entryExit, count)
	for i := range entries {
		entries[i].entry = int(r.U16())
		entries[i].exit = int(r.U16())
	}
	if r.Err() != nil {
		return false
	}
	cov := ParseCoverage(data, int(covOff))
	idx := cov.Index(album.GetGlyph(loc.Index()))
	if idx < 0 || entries[idx].entry == 0 {
		return false
	}
	_, entryY, ok := parseAnchor(data, entries[idx].entry)
	if !ok {
		return false
	}
	prev := loc.GetBefore(loc.Index())
	if prev == InvalidIndex {
		return false
	}
	prevIdx := cov.Index(album.GetGlyph(prev))
	if prevIdx < 0 || entries[prevIdx].exit == 0 {
		return false
	}
	_, exitY, ok := parseAnchor(data, entries[prevIdx].exit)
	if !ok {
		return false
	}
	// Thread the y-offset between the two connection points and link
	// the chain via cursiveOffset; a later resolution pass walks these
	// links honoring RightToLeft (§4.3).
	album.SetY(loc.Index(), exitY-entryY)
	album.SetCursiveOffset(prev, int16(loc.Index()-prev))
	return true
}

func applyMarkToAttach(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	markCovOff := r.U16()
	baseCovOff := r.U16()
	classCount := int(r.U16())
	markArrayOff := r.U16()
	baseArrayOff := r.U16()
	if r.Err() != nil {
		return false
	}
	markCov := ParseCoverage(data, int(markCovOff))
	baseCov := ParseCoverage(data, int(baseCovOff))

	markIdx := markCov.Index(album.GetGlyph(loc.Index()))
	if markIdx < 0 {
		return false
	}
	markBytes := sub(data, int(markArrayOff))
	if markBytes == nil {
		return false
	}
	mr := NewReader(markBytes)
	markCount := int(mr.U16())
	if markIdx >= markCount {
		return false
	}
	mr.Skip(markIdx * 4)
	markClass := int(mr.U16())
	markAnchorOff := mr.U16()
	if mr.Err() != nil || markClass >= classCount {
		return false
	}
	mx, my, ok := parseAnchor(markBytes, int(markAnchorOff))
	if !ok {
		return false
	}

	base := loc.GetBefore(loc.Index())
	if base == InvalidIndex {
		return false
	}
	baseIdx := baseCov.Index(album.GetGlyph(base))
	if baseIdx < 0 {
		return false
	}
	baseBytes := sub(data, int(baseArrayOff))
	if baseBytes == nil {
		return false
	}
	br := NewReader(baseBytes)
	baseCount := int(br.U16())
	if baseIdx >= baseCount {
		return false
	}
	br.Skip(baseIdx*classCount*2 + markClass*2)
	anchorOff := br.U16()
	if br.Err() != nil || anchorOff == 0 {
		return false
	}
	bx, by, ok := parseAnchor(baseBytes, int(anchorOff))
	if !ok {
		return false
	}

	album.SetX(loc.Index(), bx-mx)
	album.SetY(loc.Index(), by-my)
	album.SetAttachmentOffset(loc.Index(), int16(base-loc.Index()))
	return true
}

// applyMarkToLigature narrows the general mark-to-ligature match to the
// ligature's first component: attaching to later components requires
// tracking which component a prior ligature substitution produced each
// mark against, which this engine does not record on the album.
func applyMarkToLigature(data []byte, album *Album, loc *Locator) bool {
	r := NewReader(data)
	if r.U16() != 1 {
		return false
	}
	markCovOff := r.U16()
	ligCovOff := r.U16()
	classCount := int(r.U16())
	markArrayOff := r.U16()
	ligArrayOff := r.U16()
	if r.Err() != nil {
		return false
	}
	markCov := ParseCoverage(data, int(markCovOff))
	ligCov := ParseCoverage(data, int(ligCovOff))

	markIdx := markCov.Index(album.GetGlyph(loc.Index()))
	if markIdx < 0 {
		return false
	}
	markBytes := sub(data, int(markArrayOff))
	if markBytes == nil {
		return false
	}
	mr := NewReader(markBytes)
	markCount := int(mr.U16())
	if markIdx >= markCount {
		return false
	}
	mr.Skip(markIdx * 4)
	markClass := int(mr.U16())
	markAnchorOff := mr.U16()
	if mr.Err() != nil || markClass >= classCount {
		return false
	}
	mx, my, ok := parseAnchor(markBytes, int(markAnchorOff))
	if !ok {
		return false
	}

	lig := loc.GetBefore(loc.Index())
	if lig == InvalidIndex {
		return false
	}
	ligIdx := ligCov.Index(album.GetGlyph(lig))
	if ligIdx < 0 {
		return false
	}
	ligArrayBytes := sub(data, int(ligArrayOff))
	if ligArrayBytes == nil {
		return false
	}
	lar := NewReader(ligArrayBytes)
	ligCount := int(lar.U16())
	if ligIdx >= ligCount {
		return false
	}
	lar.Skip(ligIdx * 2)
	attachOff := lar.U16()
	if lar.Err() != nil {
		return false
	}
	attachBytes := sub(ligArrayBytes, int(attachOff))
	if attachBytes == nil {
		return false
	}
	ar := NewReader(attachBytes)
	ar.Skip(2) // componentCount; only component 0 is consulted
	ar.Skip(markClass * 2)
	anchorOff := ar.U16()
	if ar.Err() != nil || anchorOff == 0 {
		return false
	}
	lx, ly, ok := parseAnchor(attachBytes, int(anchorOff))
	if !ok {
		return false
	}

	album.SetX(loc.Index(), lx-mx)
	album.SetY(loc.Index(), ly-my)
	album.SetAttachmentOffset(loc.Index(), int16(lig-loc.Index()))
	return true
}
