// Package sfntfont adapts a real .ttf/.otf/.ttc font file to the ot.Font
// protocol (§6). It splits the work the way the two halves of the
// pack's own font-handling code split it: glyph-index and advance
// queries are delegated to golang.org/x/image/font/sfnt, which already
// knows how to walk cmap/hmtx without this module reimplementing it;
// raw GSUB/GPOS/GDEF table bytes are read by a small table-directory
// reader adapted from the teacher's own offset-table parser
// (ot/font.go: parseOffsetTable/parseTTC/TableData), since x/image's
// sfnt.Font does not expose table bytes for tables it doesn't
// interpret itself.
package sfntfont

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/boxesandglue/shaping/ot"
)

type tableRecord struct {
	offset uint32
	length uint32
}

// Font wraps one sfnt/TTC member and implements ot.Font.
type Font struct {
	data   []byte
	tables map[ot.Tag]tableRecord

	sfnt   *sfnt.Font
	buffer sfnt.Buffer
	ppem   fixed.Int26_6
}

// Load parses a single-font sfnt/OTF container from data. For a TrueType
// Collection, use LoadCollection and pick a member index.
func Load(data []byte) (*Font, error) {
	return LoadCollection(data, 0)
}

// LoadCollection parses data as an sfnt file or a TrueType Collection
// ('ttcf') and adapts member index.
func LoadCollection(data []byte, index int) (*Font, error) {
	if len(data) < 12 {
		return nil, ot.ErrInvalidFont
	}

	offset := 0
	if binary.BigEndian.Uint32(data) == 0x74746366 { // 'ttcf'
		o, err := ttcMemberOffset(data, index)
		if err != nil {
			return nil, err
		}
		offset = o
	} else if index != 0 {
		return nil, ot.ErrInvalidFont
	}

	tables, err := parseTableDirectory(data, offset)
	if err != nil {
		return nil, err
	}

	var sf *sfnt.Font
	if binary.BigEndian.Uint32(data) == 0x74746366 { // 'ttcf'
		var coll *sfnt.Collection
		coll, err = sfnt.ParseCollection(data)
		if err == nil {
			sf, err = coll.Font(index)
		}
	} else {
		sf, err = sfnt.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ot.ErrInvalidFont, err)
	}

	f := &Font{data: data, tables: tables, sfnt: sf}
	f.ppem = fixed.I(int(sf.UnitsPerEm()))
	return f, nil
}

func ttcMemberOffset(data []byte, index int) (int, error) {
	if len(data) < 16 {
		return 0, ot.ErrInvalidFont
	}
	numFonts := int(binary.BigEndian.Uint32(data[8:12]))
	if index < 0 || index >= numFonts {
		return 0, ot.ErrInvalidFont
	}
	entry := 12 + 4*index
	if entry+4 > len(data) {
		return 0, ot.ErrTruncatedTable
	}
	return int(binary.BigEndian.Uint32(data[entry:])), nil
}

// parseTableDirectory reads the 12-byte sfnt offset-table header at
// offset, followed by numTables 16-byte table records (tag, checksum,
// offset, length), exactly as ot/font.go's parseOffsetTable does for
// the teacher's own Font type.
func parseTableDirectory(data []byte, offset int) (map[ot.Tag]tableRecord, error) {
	if offset+12 > len(data) {
		return nil, ot.ErrTruncatedTable
	}
	sfntVersion := binary.BigEndian.Uint32(data[offset:])
	switch sfntVersion {
	case 0x00010000, 0x4F54544F, 0x74727565, 0x74797031:
	default:
		return nil, ot.ErrInvalidFont
	}

	numTables := int(binary.BigEndian.Uint16(data[offset+4:]))
	recordsStart := offset + 12
	tables := make(map[ot.Tag]tableRecord, numTables)
	for i := 0; i < numTables; i++ {
		rec := recordsStart + 16*i
		if rec+16 > len(data) {
			return nil, ot.ErrTruncatedTable
		}
		tag := ot.Tag(binary.BigEndian.Uint32(data[rec:]))
		tableOffset := binary.BigEndian.Uint32(data[rec+8:])
		tableLength := binary.BigEndian.Uint32(data[rec+12:])
		tables[tag] = tableRecord{offset: tableOffset, length: tableLength}
	}
	return tables, nil
}

// LoadTable implements ot.Font.
func (f *Font) LoadTable(tag ot.Tag) ([]byte, error) {
	rec, ok := f.tables[tag]
	if !ok {
		return nil, ot.ErrTableNotFound
	}
	end := uint64(rec.offset) + uint64(rec.length)
	if end > uint64(len(f.data)) {
		return nil, ot.ErrTruncatedTable
	}
	return f.data[rec.offset:end], nil
}

// GlyphIDForCodepoint implements ot.Font via sfnt.Font's cmap walk.
func (f *Font) GlyphIDForCodepoint(cp ot.Codepoint) ot.GlyphID {
	gi, err := f.sfnt.GlyphIndex(&f.buffer, cp)
	if err != nil {
		return 0
	}
	return ot.GlyphID(gi)
}

// AdvanceForGlyph implements ot.Font via sfnt.Font's hmtx walk, scaled
// to font units (ppem == unitsPerEm gives a 1:1 font-unit advance,
// matching the font-unit space the rest of this engine operates in).
func (f *Font) AdvanceForGlyph(gid ot.GlyphID) int32 {
	adv, err := f.sfnt.GlyphAdvance(&f.buffer, sfnt.GlyphIndex(gid), f.ppem, font.HintingNone)
	if err != nil {
		return 0
	}
	return int32(adv.Round())
}
