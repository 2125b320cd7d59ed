package render

import (
	"hash/fnv"
	"image/color"
	"math"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/codepix/internal/canvas"
)

// ChunkContext is the layout context for rendering one file.
type ChunkContext struct {
	// ColumnWidth and LineHeight describe one line slot in pixels.
	ColumnWidth int
	LineHeight  int

	// LineNum is the line index of the file's first line within the target
	// buffer: the global index when rendering into the shared canvas, zero
	// when rendering into a private per-file buffer.
	LineNum int

	// LinesPerColumn is the column height, in lines, of the target buffer.
	LinesPerColumn int

	// HighlightTruncated highlights the dropped tail of over-long lines.
	HighlightTruncated bool

	// FG and BG, when non-nil, override span colors.
	FG *color.RGBA
	BG *color.RGBA

	// FileIndex identifies the file within the render; it seeds the
	// per-file hue shift.
	FileIndex int

	// ColorModulation scales the per-file hue shift. Zero disables it.
	ColorModulation float64
}

// ChunkResult reports what one file's render observed.
type ChunkResult struct {
	// LongestLine is the widest line encountered, in character cells.
	LongestLine int

	// Background is the last background color sampled from the
	// highlighter, or nil if no span carried one. The orchestrator uses
	// it to pad unfilled canvas space.
	Background *color.RGBA
}

// RenderChunk draws one file's text into dst, one line slot per physical
// line. Each character cell becomes a 1-pixel-wide, LineHeight-tall strip:
// foreground-colored for visible characters, background-colored for
// whitespace and for the slot's unused remainder. Lines are placed through
// Offsets, so a chunk spans column boundaries exactly like the sequential
// whole-canvas render. Empty input renders nothing and reports a zero
// result.
func RenderChunk(text string, dst *canvas.Canvas, highlight HighlightFunc, ctx ChunkContext) (ChunkResult, error) {
	var res ChunkResult
	hueShift := fileHueShift(ctx.FileIndex, ctx.ColorModulation)

	for i, line := range splitLines(text) {
		width := uniseg.GraphemeClusterCount(line)
		if width > res.LongestLine {
			res.LongestLine = width
		}
		if !ctx.HighlightTruncated && width > ctx.ColumnWidth {
			line = truncateCells(line, ctx.ColumnWidth)
		}

		spans, err := highlight(line)
		if err != nil {
			return res, err
		}

		x0, y0 := Offsets(ctx.LineNum+i, ctx.LinesPerColumn, ctx.ColumnWidth, ctx.LineHeight)
		cx := 0
		lineBG := color.RGBA{A: 0xff}
		if res.Background != nil {
			lineBG = *res.Background
		}
		for _, span := range spans {
			bg := span.BG
			if ctx.BG != nil {
				bg = *ctx.BG
			}
			lineBG = bg
			res.Background = &bg

			fg := span.FG
			if ctx.FG != nil {
				fg = *ctx.FG
			}
			fg = shiftHue(fg, hueShift)

			g := uniseg.NewGraphemes(span.Text)
			for g.Next() {
				if cx >= ctx.ColumnWidth {
					break
				}
				cell := fg
				if isBlank(g.Str()) {
					cell = bg
				}
				dst.FillRect(x0+cx, y0, 1, ctx.LineHeight, cell)
				cx++
			}
		}
		if cx < ctx.ColumnWidth {
			dst.FillRect(x0+cx, y0, ctx.ColumnWidth-cx, ctx.LineHeight, lineBG)
		}
	}
	return res, nil
}

// splitLines splits text into physical lines. A trailing unterminated line
// counts; a trailing newline does not produce an empty extra line. Carriage
// returns before the newline are stripped.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// lineCount returns the number of physical lines in text, consistent with
// splitLines.
func lineCount(text string) int {
	return len(splitLines(text))
}

// truncateCells returns the first n character cells of line.
func truncateCells(line string, n int) string {
	g := uniseg.NewGraphemes(line)
	for i := 0; i < n && g.Next(); i++ {
	}
	_, end := g.Positions()
	return line[:end]
}

// isBlank reports whether a grapheme cluster renders as empty space.
func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// fileHueShift derives the deterministic hue offset, in degrees, for a file.
// The offset is pseudo-random in [-30, 30) per unit of modulation so that
// adjacent files are visually distinguishable; the exact distribution is a
// presentation choice, not a compatibility contract.
func fileHueShift(fileIndex int, modulation float64) float64 {
	if modulation == 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte{
		byte(fileIndex), byte(fileIndex >> 8),
		byte(fileIndex >> 16), byte(fileIndex >> 24),
	})
	r := float64(h.Sum32()) / float64(math.MaxUint32) // [0, 1)
	return (r - 0.5) * 60 * modulation
}

// shiftHue rotates a color's hue by deg degrees, preserving saturation and
// value.
func shiftHue(c color.RGBA, deg float64) color.RGBA {
	if deg == 0 {
		return c
	}
	h, s, v := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsv()
	h = math.Mod(h+deg, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
