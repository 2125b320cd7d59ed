package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/codepix/internal/render"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	defaults := render.DefaultOptions()
	opts, err := Load(filepath.Join(t.TempDir(), "absent.toml"), defaults)
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if opts != defaults {
		t.Error("missing file changed the options")
	}
}

func TestLoadOverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codepix.toml")
	const content = `
column-width = 120
theme = "dracula"
fg-color = "#ff0000"
ignore-files-without-syntax = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	defaults := render.DefaultOptions()
	opts, err := Load(path, defaults)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.ColumnWidth != 120 {
		t.Errorf("ColumnWidth = %d, want 120", opts.ColumnWidth)
	}
	if opts.Theme != "dracula" {
		t.Errorf("Theme = %q, want dracula", opts.Theme)
	}
	if opts.FGColor == nil || (*opts.FGColor != color.RGBA{R: 255, A: 255}) {
		t.Errorf("FGColor = %v, want red", opts.FGColor)
	}
	if !opts.IgnoreFilesWithoutSyntax {
		t.Error("IgnoreFilesWithoutSyntax not applied")
	}
	// Keys absent from the file keep their defaults.
	if opts.LineHeight != defaults.LineHeight {
		t.Errorf("LineHeight = %d, want default %d", opts.LineHeight, defaults.LineHeight)
	}
	if opts.TargetAspectRatio != defaults.TargetAspectRatio {
		t.Errorf("TargetAspectRatio changed without a key present")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("column-width = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, render.DefaultOptions()); err == nil {
		t.Error("malformed TOML did not error")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ffffff", color.RGBA{255, 255, 255, 255}, false},
		{"000000", color.RGBA{0, 0, 0, 255}, false},
		{"#1a2b3c", color.RGBA{0x1a, 0x2b, 0x3c, 255}, false},
		{"#fff", color.RGBA{}, true},
		{"not-a-color", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseColor(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
