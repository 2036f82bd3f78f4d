package ot

// Album — the mutable working buffer shaping operates on.
//
// Grounded on the teacher's Buffer (ot/shaper.go): same idea of a single
// owned buffer walked by a cursor and mutated glyph-by-glyph, but laid
// out as parallel arrays (struct-of-arrays) instead of a []GlyphInfo
// array-of-structs, per §3/§9: glyphs, details, positions and advances
// are four separate slices kept in lock-step, plus a flat arena for
// composite (ligature) associations instead of a per-glyph slice.

import (
	"fmt"
)

// AlbumState is the album's phase. Every mutator asserts the states it
// is legal in; violating that is a programmer error, not a runtime
// failure recoverable by the caller (§7).
type AlbumState int

const (
	StateEmpty AlbumState = iota
	StateFilling
	StateFilled
	StateArranging
	StateArranged
)

func (s AlbumState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFilling:
		return "filling"
	case StateFilled:
		return "filled"
	case StateArranging:
		return "arranging"
	case StateArranged:
		return "arranged"
	default:
		return "invalid"
	}
}

// Traits is the per-glyph trait bitset, stored in the high 16 bits of a
// glyph's mask. Named after the GDEF glyph classes plus the synthetic
// bits substitution sets along the way.
type Traits uint16

const (
	TraitBase      Traits = 1 << iota // GDEF class 1
	TraitLigature                     // GDEF class 2
	TraitMark                         // GDEF class 3
	TraitComponent                    // GDEF class 4 (ligature component)

	TraitComposite    // association names an arena cell, not a single code point
	TraitPlaceholder  // slot to be removed at wrap-up
	TraitSubstituted  // touched by some GSUB lookup
	TraitLigated      // is the output of a ligature substitution
	TraitMultiplied   // is one of the outputs of a multiple substitution
	TraitRightToLeft  // cursive chain resolves right-to-left at this glyph
)

// featureMaskEmpty is the reserved sentinel feature mask meaning "no
// feature claims this position" (§3, §9 Open Questions).
const featureMaskEmpty uint16 = 0xFFFF

// AntiFeatureMask computes the complement used to gate "apply
// regardless of feature" positions. A mask of 0 is treated as the
// empty sentinel (featureMaskEmpty, 0xFFFF), so its anti-mask is
// ^featureMaskEmpty == 0x0000 — not 0xFFFF — per the load-bearing
// symmetry called out in §9.
func AntiFeatureMask(mask uint16) uint16 {
	if mask == 0 {
		return ^featureMaskEmpty
	}
	return ^mask
}

// Position is a glyph's (x, y) offset in font units.
type Position struct {
	X, Y int32
}

// glyphDetail is one entry of the details parallel array.
type glyphDetail struct {
	association      int32 // code-point index, or arena index if TraitComposite
	mask             uint32 // low 16: feature mask; high 16: Traits
	cursiveOffset    int16  // signed glyph-index delta
	attachmentOffset int16  // signed glyph-index delta
}

func (d glyphDetail) traits() Traits     { return Traits(d.mask >> 16) }
func (d glyphDetail) featureMask() uint16 { return uint16(d.mask) }

func packMask(traits Traits, featureMask uint16) uint32 {
	return uint32(traits)<<16 | uint32(featureMask)
}

// Album holds everything the pipeline mutates: the source code points,
// the current glyph sequence and its parallel metadata, the composite
// association arena, and the state machine gating which operations are
// legal right now.
type Album struct {
	codePoints []rune

	glyphs    []GlyphID
	details   []glyphDetail
	positions []Position
	advances  []int32

	arena []int32

	codePointToGlyph []int32

	state   AlbumState
	version uint64

	refs int32
}

// NewAlbum returns a new, Empty album. Grounded on the teacher's
// NewBuffer constructor.
func NewAlbum() *Album {
	return &Album{refs: 1}
}

// Create is the spec-named constructor; it is a thin alias of NewAlbum
// kept so callers following §4.1's naming find it directly.
func Create() *Album { return NewAlbum() }

// Retain increments the album's external reference count.
func (a *Album) Retain() { a.refs++ }

// Release decrements the reference count and releases owned buffers
// once it reaches zero.
func (a *Album) Release() {
	a.refs--
	if a.refs <= 0 {
		a.Finalize()
	}
}

// State returns the album's current phase.
func (a *Album) State() AlbumState { return a.state }

// Version returns the monotonically increasing mutation counter a
// Locator snapshots to detect staleness.
func (a *Album) Version() uint64 { return a.version }

func (a *Album) bumpVersion() { a.version++ }

func (a *Album) assertState(allowed ...AlbumState) {
	for _, s := range allowed {
		if a.state == s {
			return
		}
	}
	panic(fmt.Sprintf("ot: album: operation not legal in state %s", a.state))
}

// Reset clears the album and seeds it with a new code point source.
// codePoints must be non-empty; empty input is rejected rather than
// silently accepted (§8 boundary behaviors).
func (a *Album) Reset(codePoints []rune) error {
	if len(codePoints) == 0 {
		return fmt.Errorf("ot: album: Reset requires at least one code point")
	}
	a.codePoints = codePoints
	a.glyphs = nil
	a.details = nil
	a.positions = nil
	a.advances = nil
	a.arena = nil
	a.codePointToGlyph = nil
	a.state = StateEmpty
	a.bumpVersion()
	return nil
}

// CodePointCount returns the number of source code points.
func (a *Album) CodePointCount() int { return len(a.codePoints) }

// GetCodeUnitCount is the §6 external-surface name for CodePointCount.
func (a *Album) GetCodeUnitCount() int { return a.CodePointCount() }

// CodePoint returns the code point at index i.
func (a *Album) CodePoint(i int) rune { return a.codePoints[i] }

// GlyphCount returns the number of glyphs currently in the album.
func (a *Album) GlyphCount() int { return len(a.glyphs) }

// GetGlyphCount is the §6 external-surface name for GlyphCount.
func (a *Album) GetGlyphCount() int { return a.GlyphCount() }

// StartFilling transitions Empty→Filling and pre-reserves capacity
// sized off the code point count, per §4.1.
func (a *Album) StartFilling() {
	a.assertState(StateEmpty)
	n := len(a.codePoints)
	a.glyphs = make([]GlyphID, 0, n*2)
	a.details = make([]glyphDetail, 0, n*2)
	a.state = StateFilling
}

// AddGlyph appends a glyph with an empty feature mask and a single
// association to the given code point index.
func (a *Album) AddGlyph(gid GlyphID, assoc int) {
	a.assertState(StateFilling)
	a.glyphs = append(a.glyphs, gid)
	a.details = append(a.details, glyphDetail{
		association: int32(assoc),
		mask:        packMask(0, featureMaskEmpty),
	})
	a.bumpVersion()
}

// ReserveGlyphs inserts count uninitialized glyph slots at index,
// shifting the tail right. Used by multiple-substitution expansion,
// which runs during GSUB application after StopFilling — legal in
// both states for the same reason SetGlyph is (§4.1).
func (a *Album) ReserveGlyphs(index, count int) {
	a.assertState(StateFilling, StateFilled)
	if count <= 0 {
		return
	}
	a.glyphs = insertGlyphs(a.glyphs, index, count)
	a.details = insertDetails(a.details, index, count)
	a.bumpVersion()
}

func insertGlyphs(s []GlyphID, index, count int) []GlyphID {
	out := make([]GlyphID, len(s)+count)
	copy(out, s[:index])
	copy(out[index+count:], s[index:])
	return out
}

func insertDetails(s []glyphDetail, index, count int) []glyphDetail {
	out := make([]glyphDetail, len(s)+count)
	copy(out, s[:index])
	copy(out[index+count:], s[index:])
	for i := index; i < index+count; i++ {
		out[i].mask = packMask(0, featureMaskEmpty)
	}
	return out
}

// SetGlyph overwrites the glyph ID at index.
func (a *Album) SetGlyph(index int, gid GlyphID) {
	a.assertState(StateFilling, StateFilled)
	a.glyphs[index] = gid
}

// GetGlyph returns the glyph ID at index.
func (a *Album) GetGlyph(index int) GlyphID { return a.glyphs[index] }

// GetTraits returns the trait bitset at index.
func (a *Album) GetTraits(index int) Traits { return a.details[index].traits() }

// SetTraits replaces the trait bitset at index wholesale.
func (a *Album) SetTraits(index int, t Traits) {
	d := &a.details[index]
	d.mask = packMask(t, d.featureMask())
}

// InsertTraits ORs traits into the bitset at index.
func (a *Album) InsertTraits(index int, t Traits) {
	d := &a.details[index]
	d.mask = packMask(d.traits()|t, d.featureMask())
}

// RemoveTraits clears traits from the bitset at index.
func (a *Album) RemoveTraits(index int, t Traits) {
	d := &a.details[index]
	d.mask = packMask(d.traits()&^t, d.featureMask())
}

// GetFeatureMask returns the feature mask at index.
func (a *Album) GetFeatureMask(index int) uint16 { return a.details[index].featureMask() }

// SetFeatureMask replaces the feature mask at index.
func (a *Album) SetFeatureMask(index int, mask uint16) {
	d := &a.details[index]
	d.mask = packMask(d.traits(), mask)
}

// GetAssociation returns the single association at index. The glyph
// must not be composite.
func (a *Album) GetAssociation(index int) int {
	return int(a.details[index].association)
}

// SetSingleAssociation sets index's association to a single code-point
// index, clearing the Composite trait.
func (a *Album) SetSingleAssociation(index, assoc int) {
	d := &a.details[index]
	d.association = int32(assoc)
	d.mask = packMask(d.traits()&^TraitComposite, d.featureMask())
}

// MakeCompositeAssociations allocates a new arena cell holding count
// associations for the glyph at index, marks it Composite, and returns
// the mutable slice of arena values for the caller to fill in. Grounded
// on §9's "single growable integer vector with (length, values...)
// cells" design, which lets the association arena be resized without
// ever handing out a pointer into per-glyph storage.
func (a *Album) MakeCompositeAssociations(index, count int) []int32 {
	cellStart := len(a.arena)
	a.arena = append(a.arena, int32(count))
	for i := 0; i < count; i++ {
		a.arena = append(a.arena, 0)
	}
	d := &a.details[index]
	d.association = int32(cellStart)
	d.mask = packMask(d.traits()|TraitComposite, d.featureMask())
	return a.arena[cellStart+1 : cellStart+1+count]
}

// GetCompositeAssociations returns the arena slice backing the
// composite associations of the glyph at index.
func (a *Album) GetCompositeAssociations(index int) []int32 {
	d := a.details[index]
	cellStart := int(d.association)
	length := int(a.arena[cellStart])
	return a.arena[cellStart+1 : cellStart+1+length]
}

// IsComposite reports whether the glyph at index has a composite
// (arena-backed) association.
func (a *Album) IsComposite(index int) bool {
	return a.details[index].traits()&TraitComposite != 0
}

// StopFilling transitions Filling→Filled.
func (a *Album) StopFilling() {
	a.assertState(StateFilling)
	a.state = StateFilled
}

// StartArranging transitions Filled→Arranging, allocating zeroed
// positions and advances arrays sized to the current glyph count.
func (a *Album) StartArranging() {
	a.assertState(StateFilled)
	a.positions = make([]Position, len(a.glyphs))
	a.advances = make([]int32, len(a.glyphs))
	a.state = StateArranging
}

// SetX sets the x offset of the glyph at index.
func (a *Album) SetX(index int, x int32) {
	a.assertState(StateArranging)
	a.positions[index].X = x
}

// SetY sets the y offset of the glyph at index.
func (a *Album) SetY(index int, y int32) {
	a.assertState(StateArranging)
	a.positions[index].Y = y
}

// SetAdvance sets the advance of the glyph at index.
func (a *Album) SetAdvance(index int, adv int32) {
	a.assertState(StateArranging)
	a.advances[index] = adv
}

// SetCursiveOffset sets the signed glyph-index delta used to thread
// cursive connections at index.
func (a *Album) SetCursiveOffset(index int, offset int16) {
	a.assertState(StateArranging)
	a.details[index].cursiveOffset = offset
}

// GetCursiveOffset returns the cursive offset at index.
func (a *Album) GetCursiveOffset(index int) int16 { return a.details[index].cursiveOffset }

// SetAttachmentOffset sets the signed glyph-index delta from a mark to
// its attachment base at index.
func (a *Album) SetAttachmentOffset(index int, offset int16) {
	a.assertState(StateArranging)
	a.details[index].attachmentOffset = offset
}

// GetAttachmentOffset returns the attachment offset at index.
func (a *Album) GetAttachmentOffset(index int) int16 { return a.details[index].attachmentOffset }

// StopArranging transitions Arranging→Arranged.
func (a *Album) StopArranging() {
	a.assertState(StateArranging)
	a.state = StateArranged
}

// RemovePlaceholders removes every glyph carrying the Placeholder
// trait, preserving the relative order of survivors. Implemented as a
// reverse scan batching contiguous placeholder runs into a single
// excision, per §4.1's key algorithm: O(N) in glyph count, O(G·R) in
// glyph movement.
func (a *Album) RemovePlaceholders() {
	n := len(a.glyphs)
	if n == 0 {
		return
	}
	runEnd := -1 // exclusive end of a pending placeholder run, or -1 if none open
	for i := n - 1; i >= 0; i-- {
		if a.details[i].traits()&TraitPlaceholder != 0 {
			if runEnd == -1 {
				runEnd = i + 1
			}
			continue
		}
		if runEnd != -1 {
			a.excise(i+1, runEnd)
			runEnd = -1
		}
	}
	if runEnd != -1 {
		a.excise(0, runEnd)
	}
}

// excise removes the half-open glyph range [start, end) in place.
func (a *Album) excise(start, end int) {
	if start >= end {
		return
	}
	a.glyphs = append(a.glyphs[:start], a.glyphs[end:]...)
	a.details = append(a.details[:start], a.details[end:]...)
	if a.positions != nil {
		a.positions = append(a.positions[:start], a.positions[end:]...)
	}
	if a.advances != nil {
		a.advances = append(a.advances[:start], a.advances[end:]...)
	}
	a.bumpVersion()
}

// BuildCodePointToGlyphMap traverses glyphs in reverse index order,
// writing the glyph index into the map for every code point it is
// associated with (expanding composite cells). Reverse order ensures
// the first glyph of a multi-glyph substitution claims the code point
// (§4.1, §8 scenario 6).
func (a *Album) BuildCodePointToGlyphMap() {
	m := make([]int32, len(a.codePoints))
	for i := range m {
		m[i] = -1
	}
	for i := len(a.glyphs) - 1; i >= 0; i-- {
		d := a.details[i]
		if d.traits()&TraitComposite != 0 {
			for _, cp := range a.GetCompositeAssociations(i) {
				m[cp] = int32(i)
			}
			continue
		}
		m[d.association] = int32(i)
	}
	a.codePointToGlyph = m
}

// GetCodeUnitToGlyphMapPtr returns the code-point-to-glyph map built by
// BuildCodePointToGlyphMap. Valid once the album has passed WrapUp.
func (a *Album) GetCodeUnitToGlyphMapPtr() []int32 { return a.codePointToGlyph }

// GetGlyphIDsPtr returns the current glyph ID sequence.
func (a *Album) GetGlyphIDsPtr() []GlyphID { return a.glyphs }

// GetGlyphOffsetsPtr returns the current glyph position sequence.
func (a *Album) GetGlyphOffsetsPtr() []Position { return a.positions }

// GetGlyphAdvancesPtr returns the current glyph advance sequence.
func (a *Album) GetGlyphAdvancesPtr() []int32 { return a.advances }

// Finalize releases all owned buffers. Called automatically once the
// reference count reaches zero via Release.
func (a *Album) Finalize() {
	a.codePoints = nil
	a.glyphs = nil
	a.details = nil
	a.positions = nil
	a.advances = nil
	a.arena = nil
	a.codePointToGlyph = nil
	a.state = StateEmpty
}
