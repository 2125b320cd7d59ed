package render

import "image/color"

// Source is one input file: a path used for syntax resolution and the full
// file text. Sources are identified by their position in the input slice;
// that position alone determines line numbering and final placement.
type Source struct {
	Path    string
	Content string
}

// Options configures one render invocation. It is treated as immutable for
// the duration of the render.
type Options struct {
	// ColumnWidth is the width of one column in pixels; one pixel per
	// character cell.
	ColumnWidth int

	// LineHeight is the height of one rendered line in pixels.
	LineHeight int

	// TargetAspectRatio is the desired width/height ratio of the output
	// image. Must be greater than zero.
	TargetAspectRatio float64

	// Threads is the number of worker goroutines. Zero selects the number
	// of CPUs; values are clamped to [1, NumCPU]. Fewer than two selects
	// the sequential path.
	Threads int

	// FGColor, when non-nil, overrides every span's foreground color.
	FGColor *color.RGBA

	// BGColor, when non-nil, overrides every span's background color.
	BGColor *color.RGBA

	// HighlightTruncatedLines highlights the portion of a line beyond
	// ColumnWidth before dropping it. When false the tail is dropped
	// without being fed to the highlighter.
	HighlightTruncatedLines bool

	// ShowCurrentFile reports each file path through the progress sink as
	// it is picked up.
	ShowCurrentFile bool

	// Theme names the highlight theme. Must be present in the loaded
	// theme set.
	Theme string

	// ForceFullColumns restricts the dimension search to layouts with no
	// partially filled trailing column.
	ForceFullColumns bool

	// Plain disables syntax resolution entirely; one no-op highlighter is
	// used for every file.
	Plain bool

	// IgnoreFilesWithoutSyntax drops files whose name resolves to no
	// syntax definition. Dropped files are counted, not errors.
	IgnoreFilesWithoutSyntax bool

	// ColorModulation scales the per-file hue shift that visually
	// separates adjacent files. Zero disables the shift.
	ColorModulation float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ColumnWidth:       100,
		LineHeight:        2,
		TargetAspectRatio: 16.0 / 9.0,
		Theme:             "monokai",
		ColorModulation:   0.3,
	}
}
