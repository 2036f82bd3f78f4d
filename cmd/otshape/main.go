// Command otshape is an interactive REPL for loading a font and
// shaping text against it, printing the resulting glyph/position
// stream. Modeled on ot-tools' font/shape/view command trio and
// otcli's readline+pterm REPL loop, collapsed into one small
// command/response cycle since this engine exposes a single Shaper
// entry point rather than a table-navigation interpreter.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/boxesandglue/shaping/internal/sfntfont"
	"github.com/boxesandglue/shaping/ot"
)

func tracer() tracing.Trace {
	return tracing.Select("otshape.cli")
}

func main() {
	initDisplay()

	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":    "go",
		"trace.otshape.cli":  "Info",
		"trace.ot.shaper":    "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Fprintln(os.Stderr, "otshape: cannot configure tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	tlevel := flag.String("trace", "Info", "trace level [Debug|Info|Error]")
	fontPath := flag.String("font", "", "font file to load on startup")
	flag.Parse()
	setTraceLevel(*tlevel)

	pterm.Info.Println("otshape - interactive OpenType shaping REPL")
	repl, err := readline.New("otshape> ")
	if err != nil {
		tracer().Errorf("%s", err)
		os.Exit(2)
	}
	defer repl.Close()

	intp := &interp{repl: repl}
	if *fontPath != "" {
		if err := intp.loadFont(*fontPath); err != nil {
			pterm.Error.Println(err)
		}
	}

	pterm.Info.Println("type 'help' for commands, quit with <ctrl>D or 'quit'")
	intp.run()
}

func setTraceLevel(level string) {
	switch level {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("invalid trace level %q, using Info", level)
		tracer().SetTraceLevel(tracing.LevelInfo)
	}
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{Text: " i ", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: " ! ", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}
}

// interp holds the REPL's session state: the loaded font and shaper,
// plus the most recently shaped album so 'print' can re-display it.
type interp struct {
	repl     *readline.Instance
	fontPath string
	font     *sfntfont.Font
	shaper   *ot.Shaper
	album    *ot.Album
}

func (intp *interp) run() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF on ctrl-D
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := intp.dispatch(line); quit {
			break
		}
	}
	pterm.Info.Println("goodbye")
}

func (intp *interp) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		printHelp()
	case "font":
		if len(args) != 1 {
			pterm.Error.Println("usage: font <path>")
			return false
		}
		if err := intp.loadFont(args[0]); err != nil {
			pterm.Error.Println(err)
		}
	case "shape":
		if err := intp.runShape(args); err != nil {
			pterm.Error.Println(err)
		}
	case "print":
		intp.printAlbum()
	default:
		pterm.Error.Printf("unknown command %q, type 'help'\n", fields[0])
	}
	return false
}

func printHelp() {
	pterm.Println("commands:")
	pterm.Println("  font <path>                                   load a font file")
	pterm.Println("  shape <script> <lang> <dir> <features> <text> shape text (dir: ltr|rtl)")
	pterm.Println("                                                 features: comma list, e.g. liga,kern or - for none")
	pterm.Println("  print                                         re-print the last shaped glyph run")
	pterm.Println("  quit                                          exit")
}

func (intp *interp) loadFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read font %s: %w", path, err)
	}
	f, err := sfntfont.Load(data)
	if err != nil {
		return fmt.Errorf("cannot parse font %s: %w", path, err)
	}
	shaper, err := ot.NewShaper(f)
	if err != nil {
		return fmt.Errorf("cannot build shaper for %s: %w", path, err)
	}
	intp.fontPath = path
	intp.font = f
	intp.shaper = shaper
	pterm.Success.Printf("loaded %s\n", path)
	return nil
}

func (intp *interp) runShape(args []string) error {
	if intp.shaper == nil {
		return fmt.Errorf("no font loaded, use 'font <path>' first")
	}
	if len(args) < 5 {
		return fmt.Errorf("usage: shape <script> <lang> <dir> <features> <text...>")
	}
	script := ot.ScriptTagFromBCP47(args[0])
	lang := ot.LanguageTagFromBCP47(args[1])
	dir, err := parseDirection(args[2])
	if err != nil {
		return err
	}
	features := parseFeatureTags(args[3])
	text := strings.Join(args[4:], " ")

	album := ot.NewAlbum()
	if err := album.Reset([]rune(text)); err != nil {
		return fmt.Errorf("cannot reset album: %w", err)
	}
	intp.shaper.Shape(album, script, lang, dir, features)
	intp.album = album
	intp.printAlbum()
	return nil
}

func parseDirection(s string) (ot.Direction, error) {
	switch strings.ToLower(s) {
	case "ltr", "":
		return ot.DirectionLTR, nil
	case "rtl":
		return ot.DirectionRTL, nil
	default:
		return ot.DirectionLTR, fmt.Errorf("unsupported direction %q (expected ltr|rtl)", s)
	}
}

func parseFeatureTags(spec string) []ot.Tag {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "-" {
		return nil
	}
	parts := strings.Split(spec, ",")
	tags := make([]ot.Tag, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tags = append(tags, tagFromString(p))
	}
	return tags
}

// tagFromString packs a 1-4 character feature tag string into an
// ot.Tag, right-padding with spaces as OpenType tags require.
func tagFromString(s string) ot.Tag {
	var b [4]byte
	for i := range b {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return ot.MakeTag(b[0], b[1], b[2], b[3])
}

func (intp *interp) printAlbum() {
	if intp.album == nil {
		pterm.Error.Println("nothing shaped yet")
		return
	}
	a := intp.album
	glyphs := a.GetGlyphIDsPtr()
	positions := a.GetGlyphOffsetsPtr()
	advances := a.GetGlyphAdvancesPtr()

	rows := [][]string{{"#", "glyph", "x", "y", "advance"}}
	for i, g := range glyphs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", g),
			fmt.Sprintf("%d", positions[i].X),
			fmt.Sprintf("%d", positions[i].Y),
			fmt.Sprintf("%d", advances[i]),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		pterm.Error.Println(err)
	}
}
