package ot

// ShaperOption configures a Shaper at construction time, matching the
// functional-options idiom the teacher already uses for per-call
// Feature lists in Shape (ot/shaper.go: Shape(buf, features)).
type ShaperOption func(*shaperConfig)

type shaperConfig struct {
	defaultScript   Tag
	defaultLanguage Tag
	maxNesting      int
	decorator       JoiningDecorator
}

func newShaperConfig() shaperConfig {
	return shaperConfig{
		defaultScript:   MakeTag('D', 'F', 'L', 'T'),
		defaultLanguage: MakeTag('d', 'f', 'l', 't'),
		maxNesting:      MaxContextNesting,
		decorator:       NopDecorator{},
	}
}

// WithDefaultScriptLanguage sets the script/language tags used when a
// caller asks to shape without naming one explicitly.
func WithDefaultScriptLanguage(script, language Tag) ShaperOption {
	return func(c *shaperConfig) {
		c.defaultScript = script
		c.defaultLanguage = language
	}
}

// WithMaxNesting overrides the recursion bound for nested-lookup
// application (§4.4 "Recursion bound", §9 Open Question: commonly 16)
// on the Shaper being built; grounded on the teacher's own nesting
// guard (ot_apply_context.go uses a fixed 64), restated here as a
// per-Shaper value instead of shared mutable package state so that
// multiple concurrent Shapers never race over it (§5).
func WithMaxNesting(n int) ShaperOption {
	return func(c *shaperConfig) {
		if n > 0 {
			c.maxNesting = n
		}
	}
}

// WithJoiningDecorator installs the script-specific joining decorator
// (§4.8) a Shaper runs at the end of DiscoverGlyphs.
func WithJoiningDecorator(d JoiningDecorator) ShaperOption {
	return func(c *shaperConfig) {
		if d != nil {
			c.decorator = d
		}
	}
}

// Shaper is the convenience entry point wiring a Font's parsed tables to
// a TextProcessor, mirroring the teacher's own Shaper façade
// (ot/shaper.go: NewShaper/Shape) but built on this package's
// Album/Locator/Pattern/TextProcessor instead of Buffer/OTMap.
type Shaper struct {
	font Font
	gdef *GDEF
	gsub *GSUB
	gpos *GPOS
	cfg  shaperConfig
	tp   *TextProcessor
}

// NewShaper loads GDEF/GSUB/GPOS from font and builds a ready-to-use
// Shaper. A missing GSUB or GPOS table is tolerated (common in
// positioning-only or substitution-only fonts); a missing GDEF degrades
// to the nil-receiver-safe zero behavior documented on GDEF's methods.
func NewShaper(font Font, opts ...ShaperOption) (*Shaper, error) {
	cfg := newShaperConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var gdef *GDEF
	if data, err := font.LoadTable(TagGDEF); err == nil {
		gdef = ParseGDEF(data)
	}

	var gsub *GSUB
	if data, err := font.LoadTable(TagGSUB); err == nil {
		gsub = ParseGSUB(data, gdef)
		gsub.maxNesting = cfg.maxNesting
	}

	var gpos *GPOS
	if data, err := font.LoadTable(TagGPOS); err == nil {
		gpos = ParseGPOS(data, gdef)
		gpos.maxNesting = cfg.maxNesting
	}

	return &Shaper{
		font: font,
		gdef: gdef,
		gsub: gsub,
		gpos: gpos,
		cfg:  cfg,
		tp:   NewTextProcessor(font, gdef, gsub, gpos, cfg.decorator),
	}, nil
}

// Shape compiles a Pattern for script/language/features (falling back to
// the Shaper's configured defaults when script or language is the zero
// Tag) and runs it over album.
func (s *Shaper) Shape(album *Album, script, language Tag, direction Direction, features []Tag) {
	if script == 0 {
		script = s.cfg.defaultScript
	}
	if language == 0 {
		language = s.cfg.defaultLanguage
	}

	var gsubData, gposData []byte
	if s.gsub != nil {
		gsubData, _ = s.font.LoadTable(TagGSUB)
	}
	if s.gpos != nil {
		gposData, _ = s.font.LoadTable(TagGPOS)
	}
	pattern := CompilePattern(gsubData, gposData, script, language, direction, features)
	s.tp.Process(album, pattern)
}
