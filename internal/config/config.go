// Package config loads render options from an optional TOML file. Values
// from the file are applied on top of the built-in defaults; command-line
// flags are layered on top of the result by the caller.
package config

import (
	"fmt"
	"image/color"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/codepix/internal/render"
)

// File mirrors the TOML configuration file. Pointer fields distinguish
// "absent" from zero values so only the keys present in the file override
// defaults.
type File struct {
	ColumnWidth             *int     `toml:"column-width"`
	LineHeight              *int     `toml:"line-height"`
	AspectRatio             *float64 `toml:"aspect-ratio"`
	Threads                 *int     `toml:"threads"`
	Theme                   *string  `toml:"theme"`
	FGColor                 *string  `toml:"fg-color"`
	BGColor                 *string  `toml:"bg-color"`
	HighlightTruncatedLines *bool    `toml:"highlight-truncated-lines"`
	ShowCurrentFile         *bool    `toml:"show-current-file"`
	ForceFullColumns        *bool    `toml:"force-full-columns"`
	Plain                   *bool    `toml:"plain"`
	IgnoreWithoutSyntax     *bool    `toml:"ignore-files-without-syntax"`
	ColorModulation         *float64 `toml:"color-modulation"`
}

// Load reads the configuration file at path and applies it to opts.
// A missing file is not an error; the options are returned unchanged.
func Load(path string, opts render.Options) (render.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return apply(path, data, opts)
}

// apply parses TOML data and overlays it onto opts.
func apply(source string, data []byte, opts render.Options) (render.Options, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return opts, fmt.Errorf("parsing config file %s: %w", source, err)
	}

	if f.ColumnWidth != nil {
		opts.ColumnWidth = *f.ColumnWidth
	}
	if f.LineHeight != nil {
		opts.LineHeight = *f.LineHeight
	}
	if f.AspectRatio != nil {
		opts.TargetAspectRatio = *f.AspectRatio
	}
	if f.Threads != nil {
		opts.Threads = *f.Threads
	}
	if f.Theme != nil {
		opts.Theme = *f.Theme
	}
	if f.FGColor != nil {
		c, err := ParseColor(*f.FGColor)
		if err != nil {
			return opts, fmt.Errorf("config file %s: fg-color: %w", source, err)
		}
		opts.FGColor = &c
	}
	if f.BGColor != nil {
		c, err := ParseColor(*f.BGColor)
		if err != nil {
			return opts, fmt.Errorf("config file %s: bg-color: %w", source, err)
		}
		opts.BGColor = &c
	}
	if f.HighlightTruncatedLines != nil {
		opts.HighlightTruncatedLines = *f.HighlightTruncatedLines
	}
	if f.ShowCurrentFile != nil {
		opts.ShowCurrentFile = *f.ShowCurrentFile
	}
	if f.ForceFullColumns != nil {
		opts.ForceFullColumns = *f.ForceFullColumns
	}
	if f.Plain != nil {
		opts.Plain = *f.Plain
	}
	if f.IgnoreWithoutSyntax != nil {
		opts.IgnoreFilesWithoutSyntax = *f.IgnoreWithoutSyntax
	}
	if f.ColorModulation != nil {
		opts.ColorModulation = *f.ColorModulation
	}
	return opts, nil
}

// ParseColor parses "#RRGGBB" or "RRGGBB" into an RGBA color.
func ParseColor(s string) (color.RGBA, error) {
	hex := s
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want RRGGBB", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
