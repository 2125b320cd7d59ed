package render

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Span is a run of characters within one line sharing a single style.
type Span struct {
	Text string
	FG   color.RGBA
	BG   color.RGBA
}

// HighlightFunc returns the styled spans covering one line of text, in
// order. The concatenated span texts equal the input line.
type HighlightFunc func(line string) ([]Span, error)

// Cache resolves per-file highlighters against the loaded syntax set and one
// theme. The syntax and style registries are immutable and shared; a Cache
// itself carries only which lexer is current, so Clone is cheap and each
// worker can own an independent copy.
type Cache struct {
	style   *chroma.Style
	fg      color.RGBA
	bg      color.RGBA
	current string // name of the lexer the last highlighter was built with
}

// NewCache looks up the named theme and returns a cache bound to it.
// An unknown theme returns ErrThemeNotFound with the valid names listed.
func NewCache(theme string) (*Cache, error) {
	style, ok := styles.Registry[theme]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not one of %s",
			ErrThemeNotFound, theme, strings.Join(styles.Names(), ", "))
	}
	return &Cache{
		style: style,
		fg:    entryColor(style.Get(chroma.Text).Colour, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		bg:    entryColor(style.Get(chroma.Background).Background, color.RGBA{A: 0xff}),
	}, nil
}

// Clone returns an independent copy sharing the immutable style data.
// Nothing is re-parsed.
func (c *Cache) Clone() *Cache {
	cp := *c
	return &cp
}

// PlainHighlighter returns a no-op highlighter that styles every line as a
// single span in the theme's default colors.
func (c *Cache) PlainHighlighter() *Highlighter {
	return &Highlighter{fg: c.fg, bg: c.bg}
}

// HighlighterForFile resolves the file name against the syntax set and
// returns a highlighter for it. It returns nil when the resolved syntax is
// the one the previous call already produced, so callers can keep reusing
// the current highlighter across consecutive files of the same type. A file
// with no matching syntax resolves to the plain highlighter.
func (c *Cache) HighlighterForFile(path string) (*Highlighter, error) {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		if c.current == "" {
			return nil, nil
		}
		c.current = ""
		return c.PlainHighlighter(), nil
	}
	name := lexer.Config().Name
	if name == c.current {
		return nil, nil
	}
	c.current = name
	return &Highlighter{
		lexer: chroma.Coalesce(lexer),
		style: c.style,
		fg:    c.fg,
		bg:    c.bg,
	}, nil
}

// HasSyntax reports whether the file name resolves to a syntax definition.
func HasSyntax(path string) bool {
	return lexers.Match(filepath.Base(path)) != nil
}

// Highlighter converts one line of text into styled spans. A nil lexer
// means plain output. Highlighters are not safe for concurrent use; workers
// obtain their own through a cloned Cache.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
	fg    color.RGBA
	bg    color.RGBA
}

// Background returns the theme's default background color.
func (h *Highlighter) Background() color.RGBA { return h.bg }

// HighlightLine tokenises one line and returns its styled spans.
func (h *Highlighter) HighlightLine(line string) ([]Span, error) {
	if h.lexer == nil {
		return []Span{{Text: line, FG: h.fg, BG: h.bg}}, nil
	}
	it, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return nil, fmt.Errorf("tokenising line: %w", err)
	}
	var spans []Span
	for tok := it(); tok != chroma.EOF; tok = it() {
		entry := h.style.Get(tok.Type)
		spans = append(spans, Span{
			Text: tok.Value,
			FG:   entryColor(entry.Colour, h.fg),
			BG:   entryColor(entry.Background, h.bg),
		})
	}
	if len(spans) == 0 {
		// Empty lines still carry the theme background.
		spans = append(spans, Span{FG: h.fg, BG: h.bg})
	}
	return spans, nil
}

// entryColor converts a chroma colour to RGBA, falling back when unset.
func entryColor(c chroma.Colour, fallback color.RGBA) color.RGBA {
	if !c.IsSet() {
		return fallback
	}
	return color.RGBA{R: c.Red(), G: c.Green(), B: c.Blue(), A: 0xff}
}
