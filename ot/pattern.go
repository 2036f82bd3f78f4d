package ot

// Pattern — a compiled, immutable feature-unit plan for one script and
// language (§3 "Pattern", §4 n/a — built once per shaping session and
// reused as a read-only, shareable resource per §5).
//
// Grounded on the teacher's OTMap (ot_map.go): both group lookups under
// a mask-gated unit, but Pattern groups by *feature unit* (one mask bit
// per simultaneous pass) rather than the teacher's one-mask-per-lookup
// scheme, per §3's "a feature unit is a set of features considered
// simultaneously applicable at one pass of the shaper".

import (
	"golang.org/x/text/language"
)

// Direction is the text direction a Pattern was compiled for.
type Direction int

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

// FeatureUnit is a set of feature lookups applied together in one pass,
// gated by a single feature-mask bit.
type FeatureUnit struct {
	Mask          uint16
	LookupIndices []uint16
}

// Pattern is the compiled script/language/feature plan driving
// SubstituteGlyphs and PositionGlyphs.
type Pattern struct {
	Script    Tag
	Language  Tag
	Direction Direction

	SubstitutionUnits []FeatureUnit
	PositioningUnits  []FeatureUnit
}

// maskAllocator yields successive single-bit feature masks,
// wrapping before colliding with the reserved empty sentinel (§3).
type maskAllocator struct{ next uint16 }

func (m *maskAllocator) alloc() uint16 {
	if m.next == 0 {
		m.next = 1
	}
	bit := m.next
	m.next <<= 1
	if m.next == 0 || bit == featureMaskEmpty {
		m.next = 1
	}
	return bit
}

// CompilePattern builds a Pattern selecting script, language and an
// ordered list of requested feature tags out of a font's GSUB and GPOS
// tables. Either table may be nil if the font lacks it. Unknown
// script/language tags fall back to DFLT/dflt per §6.
func CompilePattern(gsubData, gposData []byte, script, language Tag, direction Direction, features []Tag) *Pattern {
	tracer().Infof("compiling pattern for script %s, language %s, %d features", script, language, len(features))
	p := &Pattern{Script: script, Language: language, Direction: direction}

	if gsubData != nil {
		lt := parseLayoutTable(gsubData)
		p.SubstitutionUnits = compileUnits(&lt, script, language, features)
	}
	if gposData != nil {
		lt := parseLayoutTable(gposData)
		p.PositioningUnits = compileUnits(&lt, script, language, features)
	}
	tracer().Infof("pattern compiled: %d substitution units, %d positioning units",
		len(p.SubstitutionUnits), len(p.PositioningUnits))
	return p
}

func compileUnits(lt *layoutTable, script, language Tag, features []Tag) []FeatureUnit {
	langSys := lt.scriptList.Lookup(script, language)
	if langSys == nil {
		return nil
	}

	var alloc maskAllocator
	units := make([]FeatureUnit, 0, len(features))
	for _, wanted := range features {
		idx := findFeatureIndex(lt, langSys, wanted)
		if idx < 0 {
			continue
		}
		feat := lt.featureList.Get(idx)
		if feat == nil || len(feat.LookupIndices) == 0 {
			continue
		}
		units = append(units, FeatureUnit{
			Mask:          alloc.alloc(),
			LookupIndices: feat.LookupIndices,
		})
	}
	return units
}

func findFeatureIndex(lt *layoutTable, langSys *LangSys, tag Tag) int {
	for _, fi := range langSys.FeatureIndices {
		if feat := lt.featureList.Get(int(fi)); feat != nil && feat.Tag == tag {
			return int(fi)
		}
	}
	return -1
}

// scriptTagOverrides lists the ISO 15924 → OpenType script tag pairs
// that do not follow the generic lowercase-and-pad rule, taken from the
// OpenType script tag registry.
var scriptTagOverrides = map[string]Tag{
	"Hira": MakeTag('k', 'a', 'n', 'a'),
	"Kana": MakeTag('k', 'a', 'n', 'a'),
	"Hans": MakeTag('h', 'a', 'n', 'i'),
	"Hant": MakeTag('h', 'a', 'n', 'i'),
	"Nkoo": MakeTag('n', 'k', 'o', ' '),
	"Vaii": MakeTag('v', 'a', 'i', ' '),
	"Yiii": MakeTag('y', 'i', ' ', ' '),
}

// ScriptTagFromBCP47 resolves a BCP-47 language tag string to an
// OpenType script tag, using golang.org/x/text/language to determine
// the (possibly inferred) ISO 15924 script of the tag. Falls back to
// TagDefaultScript if the tag cannot be parsed.
func ScriptTagFromBCP47(bcp47 string) Tag {
	t, err := language.Parse(bcp47)
	if err != nil {
		return TagDefaultScript
	}
	script, conf := t.Script()
	if conf == language.No {
		return TagDefaultScript
	}
	iso := script.String()
	if tag, ok := scriptTagOverrides[iso]; ok {
		return tag
	}
	if len(iso) != 4 {
		return TagDefaultScript
	}
	lower := [4]byte{}
	for i := 0; i < 4; i++ {
		c := iso[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	return MakeTag(lower[0], lower[1], lower[2], lower[3])
}

// LanguageTagFromBCP47 resolves the BCP-47 tag's base language into a
// 4-byte OpenType language-system tag using the 'xyz ' padding
// convention documented in the OpenType language tag registry for tags
// without a dedicated three-letter registration; it does not attempt
// the registry's many historical exceptions.
func LanguageTagFromBCP47(bcp47 string) Tag {
	t, err := language.Parse(bcp47)
	if err != nil {
		return TagDefaultLang
	}
	base, conf := t.Base()
	if conf == language.No {
		return TagDefaultLang
	}
	iso := base.String()
	switch len(iso) {
	case 2:
		return MakeTag(iso[0], iso[1], ' ', ' ')
	case 3:
		return MakeTag(iso[0], iso[1], iso[2], ' ')
	default:
		return TagDefaultLang
	}
}
