package ot

// JoiningDecorator is the single seam through which a script-specific
// shaping engine (Arabic joining, Indic/Khmer/Myanmar/USE syllable
// reordering, Hangul composition, ...) contributes to a shaping run.
// Per §1/§4.8 those state machines are opaque external collaborators;
// this engine only ever calls Decorate once, at the end of
// DiscoverGlyphs, before StopFilling.
//
// A decorator may only call the Album's Filling-phase mutators
// (SetFeatureMask, SetTraits, InsertTraits) — it runs before glyph
// positions or advances exist, and before any GSUB lookup has applied.
type JoiningDecorator interface {
	Decorate(album *Album, script Tag)
}

// NopDecorator is the default JoiningDecorator: it does nothing. Used
// for scripts with no joining behavior (most Latin-family scripts) or
// when the caller has not wired a specific decorator.
type NopDecorator struct{}

// Decorate is a no-op.
func (NopDecorator) Decorate(album *Album, script Tag) {}

// Arabic joining types, per the Unicode ArabicShaping.txt classes this
// decorator restates a small fixed table of (dual-joining is by far the
// most common class and is the default for unclassified Arabic-block
// code points not covered below).
type arabicJoiningType int

const (
	joiningTypeNone arabicJoiningType = iota
	joiningTypeDual
	joiningTypeRight
	joiningTypeTransparent
)

// arabicRightJoining lists the small set of Arabic letters that only
// ever join on their right side (ALEF and its relatives, WAW, DAL,
// THAL, REH, ZAIN, ...); every other letter in the Arabic block is
// treated as dual-joining. Combining marks above/below are transparent.
var arabicRightJoining = map[rune]bool{
	0x0622: true, 0x0623: true, 0x0624: true, 0x0625: true, 0x0627: true,
	0x0629: true, 0x062F: true, 0x0630: true, 0x0631: true, 0x0632: true,
	0x0648: true, 0x0649: true, 0x0671: true, 0x0672: true, 0x0673: true,
	0x0675: true, 0x0676: true, 0x0677: true, 0x0688: true, 0x0689: true,
	0x068A: true, 0x068B: true, 0x068C: true, 0x068D: true, 0x068E: true,
	0x068F: true, 0x0690: true, 0x0691: true, 0x0692: true, 0x0693: true,
	0x0694: true, 0x0695: true, 0x0696: true, 0x0697: true, 0x0698: true,
	0x0699: true, 0x06C0: true, 0x06C3: true, 0x06C4: true, 0x06C5: true,
	0x06C6: true, 0x06C7: true, 0x06C8: true, 0x06C9: true, 0x06CA: true,
	0x06CB: true, 0x06CD: true, 0x06D2: true, 0x06D3: true, 0x06D5: true,
}

func joiningTypeOf(cp rune) arabicJoiningType {
	if (cp >= 0x0610 && cp <= 0x061A) || (cp >= 0x064B && cp <= 0x065F) || cp == 0x0670 {
		return joiningTypeTransparent
	}
	if cp < 0x0600 || cp > 0x06FF {
		return joiningTypeNone
	}
	if arabicRightJoining[cp] {
		return joiningTypeRight
	}
	return joiningTypeDual
}

// Arabic contextual-form feature masks, one bit each so they compose
// with the composite units a Pattern may build around 'isol'/'fina'/
// 'medi'/'init' feature tags.
const (
	arabicMaskIsol uint16 = 1 << 0
	arabicMaskFina uint16 = 1 << 1
	arabicMaskMedi uint16 = 1 << 2
	arabicMaskInit uint16 = 1 << 3
)

// ArabicJoiningDecorator sets per-glyph feature-mask bits for the four
// positional contextual forms (isolated, final, medial, initial) from
// each code point's Arabic joining type and its joining neighbors,
// adapted from the teacher's arabic state-machine classification
// (ot_shaper_arabic.go: arabicJoiningAnalysis) but simplified to a
// direct left/right neighbor scan instead of reproducing the full
// HarfBuzz state table. Stretch (STCH) justification, legacy Win1256
// remapping, fallback ligatures and mark reordering are left to the
// excluded "opaque shaping engine" (§1).
type ArabicJoiningDecorator struct{}

func (ArabicJoiningDecorator) Decorate(album *Album, script Tag) {
	n := album.CodePointCount()
	types := make([]arabicJoiningType, n)
	for i := 0; i < n; i++ {
		types[i] = joiningTypeOf(album.CodePoint(i))
	}

	joinsRight := func(i int) bool {
		for j := i - 1; j >= 0; j-- {
			switch types[j] {
			case joiningTypeTransparent:
				continue
			case joiningTypeDual, joiningTypeRight:
				return true
			default:
				return false
			}
		}
		return false
	}
	joinsLeft := func(i int) bool {
		for j := i + 1; j < n; j++ {
			switch types[j] {
			case joiningTypeTransparent:
				continue
			case joiningTypeDual:
				return true
			default:
				return false
			}
		}
		return false
	}

	for i := 0; i < n; i++ {
		if types[i] == joiningTypeNone || types[i] == joiningTypeTransparent {
			continue
		}
		// codePointToGlyph is not built until wrap-up; Decorate runs
		// right after one-glyph-per-code-point discovery, so glyph
		// index still tracks code-point index.
		idx := i
		if idx >= album.GlyphCount() {
			idx = album.GlyphCount() - 1
		}

		right := joinsRight(i)
		left := types[i] == joiningTypeDual && joinsLeft(i)

		var mask uint16
		switch {
		case right && left:
			mask = arabicMaskMedi
		case right && !left:
			mask = arabicMaskFina
		case !right && left:
			mask = arabicMaskInit
		default:
			mask = arabicMaskIsol
		}
		album.SetFeatureMask(idx, mask)
	}
}
