package ot

// Context and chain-context matching (GSUB lookup types 5/6, GPOS
// lookup types 7/8): the subtlest piece of the engine (§4.4).
//
// Grounded on the teacher's OTApplyContext recursive matching
// (ot_apply_context.go: NextContextMatch/PrevContextMatch and their
// MaySkip/MayMatch three-way logic) restated against Locator.GetAfter/
// GetBefore instead of hand-rolled buffer walking, and against the
// generic "three assessment modes share a common driver" structure
// called out in §4.4.

// MaxContextNesting bounds recursive nested-lookup application. The
// teacher used 64 (HarfBuzz's HB_MAX_NESTING_LEVEL); §4.4 asks for "a
// fixed maximum nesting depth (commonly 16)" so pathological
// self-referential lookups abort sooner. Chosen as 16 per that
// guidance.
const MaxContextNesting = 16

// MatchMode selects how a sequence value is compared against a glyph.
type MatchMode int

const (
	MatchEquality MatchMode = iota // value is a raw glyph ID
	MatchClass                     // value is a class number
	MatchCoverage                  // value indexes a list of Coverage tables
)

// SequenceLookupRecord names a nested lookup to apply at sequenceIndex
// within the matched input range.
type SequenceLookupRecord struct {
	SequenceIndex   int
	LookupListIndex uint16
}

// LookupApplier is the seam context.go uses to invoke a nested lookup
// by index without depending on the GSUB/GPOS dispatcher directly.
// MaxNesting reports the recursion bound configured on the Shaper that
// built this applier, so the bound travels with the table instance
// instead of living in shared mutable package state (§5: multiple
// Shapers over different fonts/configurations may run concurrently).
type LookupApplier interface {
	ApplyLookupAt(lookupIndex int, album *Album, loc *Locator, depth int) bool
	MaxNesting() int
}

// sequenceSpec is a parsed context/chain-context rule: the backtrack,
// input and lookahead value arrays (in the encoding named by mode) plus
// the nested lookup records to apply on a full match.
type sequenceSpec struct {
	mode MatchMode

	backtrackValues []uint16 // nearest-first, as encoded
	inputValues     []uint16 // inputValues[0] is re-checked only in MatchCoverage mode; otherwise the rule set/class selection already confirmed it
	lookaheadValues []uint16

	backtrackClassDef *ClassDef
	inputClassDef     *ClassDef
	lookaheadClassDef *ClassDef

	coverages []*Coverage // indexed by value when mode == MatchCoverage

	records []SequenceLookupRecord
}

func valueMatches(spec *sequenceSpec, classDef *ClassDef, album *Album, index int, value uint16) bool {
	gid := album.GetGlyph(index)
	switch spec.mode {
	case MatchEquality:
		return gid == value
	case MatchClass:
		if classDef == nil {
			return false
		}
		return classDef.Class(gid) == value
	case MatchCoverage:
		if int(value) >= len(spec.coverages) {
			return false
		}
		return spec.coverages[value].Contains(gid)
	default:
		return false
	}
}

// assess walks backtrack/input/lookahead from the locator's current
// position per §4.4's four assessment steps. On success it returns the
// index of the last input glyph matched (contextEnd, inclusive) and true.
func assess(spec *sequenceSpec, album *Album, loc *Locator) (contextEnd int, ok bool) {
	start := loc.Index()
	if start == InvalidIndex {
		return 0, false
	}

	// Step 1: walk input. For equality/class specs (formats 1/2),
	// inputValues[0] was already confirmed by the rule-set/class
	// selection that chose this spec, so it is skipped; a coverage spec
	// (format 3) has no such selection, so its first glyph is checked here.
	if spec.mode == MatchCoverage && len(spec.inputValues) > 0 &&
		!valueMatches(spec, spec.inputClassDef, album, start, spec.inputValues[0]) {
		return 0, false
	}
	cur := start
	for i := 1; i < len(spec.inputValues); i++ {
		next := loc.GetAfter(cur)
		if next == InvalidIndex {
			return 0, false
		}
		if !valueMatches(spec, spec.inputClassDef, album, next, spec.inputValues[i]) {
			return 0, false
		}
		cur = next
	}
	contextEnd = cur

	// Step 2: walk backtrack outward from start, nearest-first.
	cur = start
	for _, v := range spec.backtrackValues {
		prev := loc.GetBefore(cur)
		if prev == InvalidIndex {
			return 0, false
		}
		if !valueMatches(spec, spec.backtrackClassDef, album, prev, v) {
			return 0, false
		}
		cur = prev
	}

	// Step 3: walk lookahead outward from contextEnd.
	cur = contextEnd
	for _, v := range spec.lookaheadValues {
		next := loc.GetAfter(cur)
		if next == InvalidIndex {
			return 0, false
		}
		if !valueMatches(spec, spec.lookaheadClassDef, album, next, v) {
			return 0, false
		}
		cur = next
	}

	return contextEnd, true
}

// applyNested runs the nested-lookup application protocol of §4.4 once
// a sequence has matched: save the outer locator, construct an inner
// one over the matched range, land each nested lookup at its declared
// sequence index, then take the inner locator's final state back into
// the outer one so the walk resumes past everything consumed.
func applyNested(spec *sequenceSpec, album *Album, outer *Locator, contextStart, contextEnd int, applier LookupApplier, depth int) {
	if depth >= applier.MaxNesting() {
		tracer().Debugf("nested context application aborted: depth %d reached MaxNesting", depth)
		return
	}
	tracer().Debugf("applying %d nested lookup(s) over [%d,%d] at depth %d", len(spec.records), contextStart, contextEnd, depth)
	inner := outer.Clone()
	inner.Reset(contextStart, contextEnd-contextStart+1)
	inner.Reserve(outer.lookupFlag, outer.markFilteringSet)

	for _, rec := range spec.records {
		inner.JumpTo(contextStart - 1)
		if !inner.Skip(rec.SequenceIndex + 1) {
			continue
		}
		before := album.GlyphCount()
		applier.ApplyLookupAt(int(rec.LookupListIndex), album, inner, depth+1)
		if delta := album.GlyphCount() - before; delta != 0 {
			inner.limit += delta
			inner.version = album.Version()
		}
	}

	// inner.limit, grown or shrunk by every nested application above, is
	// now the first position past everything the context consumed.
	// outer's own window is a different (larger) range: its caller
	// already wraps this whole application in a before/after
	// album.GlyphCount() comparison and widens/narrows outer.limit by
	// the net delta itself (walkLookup for a depth-0 outer, or the
	// enclosing applyNested's own per-record loop for a nested one), so
	// TakeState here only needs to move outer's position past the
	// consumed range, never its limit.
	inner.index = inner.limit - 1
	outer.TakeState(inner)
}

// RunSpecs tries each candidate spec in order at the locator's current
// position, applying the first one that matches (§4.4: "the first
// matching subtable applies", generalized to rule-within-ruleset).
func RunSpecs(specs []*sequenceSpec, album *Album, loc *Locator, applier LookupApplier, depth int) bool {
	contextStart := loc.Index()
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		contextEnd, ok := assess(spec, album, loc)
		if !ok {
			continue
		}
		applyNested(spec, album, loc, contextStart, contextEnd, applier, depth)
		return true
	}
	return false
}

// ruleSetDispatch is a context/chain-context format whose rule sets are
// selected by the coverage index of the position's own glyph (formats
// 1 for Context, and the glyph-sequence variant of Chain Context).
type ruleSetDispatch struct {
	coverage *Coverage
	ruleSets [][]*sequenceSpec // indexed by coverage.Index(gid)
}

func (d *ruleSetDispatch) specsFor(gid GlyphID) []*sequenceSpec {
	if d.coverage == nil {
		return nil
	}
	i := d.coverage.Index(gid)
	if i < 0 || i >= len(d.ruleSets) {
		return nil
	}
	return d.ruleSets[i]
}

// classSetDispatch is a context/chain-context format 2 whose rule sets
// are selected by the input class of the position's own glyph.
type classSetDispatch struct {
	inputClassDef *ClassDef
	classSets     [][]*sequenceSpec // indexed by class number
}

func (d *classSetDispatch) specsFor(gid GlyphID) []*sequenceSpec {
	if d.inputClassDef == nil {
		return nil
	}
	class := int(d.inputClassDef.Class(gid))
	if class < 0 || class >= len(d.classSets) {
		return nil
	}
	return d.classSets[class]
}

// parseContextFormat1 parses a plain Context subtable, format 1: a
// coverage of the first input glyph, and one RuleSet of glyph-ID
// sequence rules per covered glyph.
func parseContextFormat1(data []byte) *ruleSetDispatch {
	r := NewReader(data)
	r.Skip(2) // format, already dispatched by caller
	covOff := r.U16()
	ruleSetCount := int(r.U16())
	ruleSetOffsets := make([]int, ruleSetCount)
	for i := range ruleSetOffsets {
		ruleSetOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return nil
	}

	d := &ruleSetDispatch{
		coverage: ParseCoverage(data, int(covOff)),
		ruleSets: make([][]*sequenceSpec, len(ruleSetOffsets)),
	}
	for i, rsOff := range ruleSetOffsets {
		d.ruleSets[i] = parseRuleSet(data, rsOff, MatchEquality, nil)
	}
	return d
}

func parseRuleSet(data []byte, offset int, mode MatchMode, classDef *ClassDef) []*sequenceSpec {
	rsBytes := sub(data, offset)
	if rsBytes == nil {
		return nil
	}
	rr := NewReader(rsBytes)
	ruleCount := int(rr.U16())
	specs := make([]*sequenceSpec, 0, ruleCount)
	for i := 0; i < ruleCount; i++ {
		ruleOff := int(rr.U16())
		ruleBytes := sub(rsBytes, ruleOff)
		if ruleBytes == nil {
			continue
		}
		specs = append(specs, parseSequenceRule(ruleBytes, mode, classDef))
	}
	return specs
}

func parseSequenceRule(data []byte, mode MatchMode, inputClassDef *ClassDef) *sequenceSpec {
	r := NewReader(data)
	glyphCount := int(r.U16())
	lookupCount := int(r.U16())
	values := make([]uint16, glyphCount)
	for i := 1; i < glyphCount; i++ {
		values[i] = r.U16()
	}
	records := make([]SequenceLookupRecord, lookupCount)
	for i := range records {
		records[i] = SequenceLookupRecord{
			SequenceIndex:   int(r.U16()),
			LookupListIndex: r.U16(),
		}
	}
	if r.Err() != nil {
		return &sequenceSpec{mode: mode}
	}
	return &sequenceSpec{mode: mode, inputValues: values, inputClassDef: inputClassDef, records: records}
}

// parseContextFormat2 parses a plain Context subtable, format 2:
// class-based input sequences, one ClassSet per input class.
func parseContextFormat2(data []byte) *classSetDispatch {
	r := NewReader(data)
	r.Skip(2) // format
	r.Skip(2) // coverage offset of the first input glyph; class selection subsumes it
	classDefOff := r.U16()
	classSetCount := int(r.U16())
	classSetOffsets := make([]int, classSetCount)
	for i := range classSetOffsets {
		classSetOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return nil
	}
	cd := ParseClassDef(data, int(classDefOff))
	d := &classSetDispatch{inputClassDef: cd, classSets: make([][]*sequenceSpec, len(classSetOffsets))}
	for i, off := range classSetOffsets {
		d.classSets[i] = parseRuleSet(data, off, MatchClass, cd)
	}
	return d
}

// parseContextFormat3 parses a plain Context subtable, format 3:
// explicit per-glyph coverage lists, no rule-set keying needed.
func parseContextFormat3(data []byte) *sequenceSpec {
	r := NewReader(data)
	r.Skip(2) // format
	glyphCount := int(r.U16())
	lookupCount := int(r.U16())
	covOffsets := make([]int, glyphCount)
	for i := range covOffsets {
		covOffsets[i] = int(r.U16())
	}
	records := make([]SequenceLookupRecord, lookupCount)
	for i := range records {
		records[i] = SequenceLookupRecord{
			SequenceIndex:   int(r.U16()),
			LookupListIndex: r.U16(),
		}
	}
	if r.Err() != nil {
		return &sequenceSpec{mode: MatchCoverage}
	}
	spec := &sequenceSpec{mode: MatchCoverage, records: records}
	for i, off := range covOffsets {
		spec.coverages = append(spec.coverages, ParseCoverage(data, off))
		spec.inputValues = append(spec.inputValues, uint16(i))
	}
	return spec
}

// parseChainContextFormat3 parses Chain Context format 3: explicit
// coverage lists for backtrack, input and lookahead. This is the
// format exercised by the chain-context scenario in §8.
func parseChainContextFormat3(data []byte) *sequenceSpec {
	r := NewReader(data)
	r.Skip(2) // format

	backtrackCount := int(r.U16())
	backtrackOffsets := make([]int, backtrackCount)
	for i := range backtrackOffsets {
		backtrackOffsets[i] = int(r.U16())
	}
	inputCount := int(r.U16())
	inputOffsets := make([]int, inputCount)
	for i := range inputOffsets {
		inputOffsets[i] = int(r.U16())
	}
	lookaheadCount := int(r.U16())
	lookaheadOffsets := make([]int, lookaheadCount)
	for i := range lookaheadOffsets {
		lookaheadOffsets[i] = int(r.U16())
	}
	recordCount := int(r.U16())
	records := make([]SequenceLookupRecord, recordCount)
	for i := range records {
		records[i] = SequenceLookupRecord{
			SequenceIndex:   int(r.U16()),
			LookupListIndex: r.U16(),
		}
	}
	if r.Err() != nil {
		return &sequenceSpec{mode: MatchCoverage}
	}

	spec := &sequenceSpec{mode: MatchCoverage, records: records}

	// Backtrack coverages are stored nearest-first in the binary
	// layout, which is exactly the order §4.4 requires for the
	// backtrack walk.
	for _, off := range backtrackOffsets {
		spec.coverages = append(spec.coverages, ParseCoverage(data, off))
		spec.backtrackValues = append(spec.backtrackValues, uint16(len(spec.coverages)-1))
	}
	for _, off := range inputOffsets {
		spec.coverages = append(spec.coverages, ParseCoverage(data, off))
		spec.inputValues = append(spec.inputValues, uint16(len(spec.coverages)-1))
	}
	for _, off := range lookaheadOffsets {
		spec.coverages = append(spec.coverages, ParseCoverage(data, off))
		spec.lookaheadValues = append(spec.lookaheadValues, uint16(len(spec.coverages)-1))
	}
	return spec
}

// parseChainContextFormat1 parses Chain Context format 1: a coverage of
// the first input glyph, then per-glyph RuleSets of backtrack/input/
// lookahead glyph-ID sequences.
func parseChainContextFormat1(data []byte) *ruleSetDispatch {
	r := NewReader(data)
	r.Skip(2) // format
	covOff := r.U16()
	ruleSetCount := int(r.U16())
	ruleSetOffsets := make([]int, ruleSetCount)
	for i := range ruleSetOffsets {
		ruleSetOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return nil
	}
	d := &ruleSetDispatch{coverage: ParseCoverage(data, int(covOff)), ruleSets: make([][]*sequenceSpec, len(ruleSetOffsets))}
	for i, rsOff := range ruleSetOffsets {
		rsBytes := sub(data, rsOff)
		if rsBytes == nil {
			continue
		}
		rr := NewReader(rsBytes)
		ruleCount := int(rr.U16())
		specs := make([]*sequenceSpec, 0, ruleCount)
		for j := 0; j < ruleCount; j++ {
			ruleOff := int(rr.U16())
			ruleBytes := sub(rsBytes, ruleOff)
			if ruleBytes == nil {
				continue
			}
			specs = append(specs, parseChainSequenceRule(ruleBytes, MatchEquality, nil, nil, nil))
		}
		d.ruleSets[i] = specs
	}
	return d
}

// parseChainContextFormat2 parses Chain Context format 2: class-based
// backtrack/input/lookahead sequences, each against its own ClassDef.
func parseChainContextFormat2(data []byte) *classSetDispatch {
	r := NewReader(data)
	r.Skip(2) // format
	r.Skip(2) // coverage offset of the first input glyph; class selection subsumes it
	backtrackClassDefOff := r.U16()
	inputClassDefOff := r.U16()
	lookaheadClassDefOff := r.U16()
	classSetCount := int(r.U16())
	classSetOffsets := make([]int, classSetCount)
	for i := range classSetOffsets {
		classSetOffsets[i] = int(r.U16())
	}
	if r.Err() != nil {
		return nil
	}

	backtrackCD := ParseClassDef(data, int(backtrackClassDefOff))
	inputCD := ParseClassDef(data, int(inputClassDefOff))
	lookaheadCD := ParseClassDef(data, int(lookaheadClassDefOff))

	d := &classSetDispatch{inputClassDef: inputCD, classSets: make([][]*sequenceSpec, len(classSetOffsets))}
	for i, csOff := range classSetOffsets {
		csBytes := sub(data, csOff)
		if csBytes == nil {
			continue
		}
		cr := NewReader(csBytes)
		ruleCount := int(cr.U16())
		specs := make([]*sequenceSpec, 0, ruleCount)
		for j := 0; j < ruleCount; j++ {
			ruleOff := int(cr.U16())
			ruleBytes := sub(csBytes, ruleOff)
			if ruleBytes == nil {
				continue
			}
			specs = append(specs, parseChainSequenceRule(ruleBytes, MatchClass, backtrackCD, inputCD, lookaheadCD))
		}
		d.classSets[i] = specs
	}
	return d
}

func parseChainSequenceRule(data []byte, mode MatchMode, backtrackCD, inputCD, lookaheadCD *ClassDef) *sequenceSpec {
	r := NewReader(data)
	backtrackCount := int(r.U16())
	backtrack := make([]uint16, backtrackCount)
	for i := range backtrack {
		backtrack[i] = r.U16()
	}
	inputCount := int(r.U16())
	input := make([]uint16, inputCount)
	for i := 1; i < inputCount; i++ {
		input[i] = r.U16()
	}
	lookaheadCount := int(r.U16())
	lookahead := make([]uint16, lookaheadCount)
	for i := range lookahead {
		lookahead[i] = r.U16()
	}
	recordCount := int(r.U16())
	records := make([]SequenceLookupRecord, recordCount)
	for i := range records {
		records[i] = SequenceLookupRecord{
			SequenceIndex:   int(r.U16()),
			LookupListIndex: r.U16(),
		}
	}
	if r.Err() != nil {
		return &sequenceSpec{mode: mode}
	}
	return &sequenceSpec{
		mode:              mode,
		backtrackValues:   backtrack,
		inputValues:       input,
		lookaheadValues:   lookahead,
		backtrackClassDef: backtrackCD,
		inputClassDef:     inputCD,
		lookaheadClassDef: lookaheadCD,
		records:           records,
	}
}
