// Package scan discovers and reads the source files to render. It is a
// collaborator of the render core: it produces the ordered Source slice and
// nothing else.
package scan

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/codepix/internal/render"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
}

// Sources walks the given roots in order and reads every regular file into a
// render.Source. Within one root, files are visited in sorted path order, so
// the result is deterministic. Binary and non-UTF-8 files are silently
// skipped: they have no meaningful lines to draw. A root that is a plain
// file is read directly.
func Sources(roots []string) ([]render.Source, error) {
	var out []render.Source
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		if !info.IsDir() {
			src, ok, err := read(root)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, src)
			}
			continue
		}

		var paths []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != root) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && !strings.HasPrefix(d.Name(), ".") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		sort.Strings(paths)
		for _, path := range paths {
			src, ok, err := read(path)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, src)
			}
		}
	}
	return out, nil
}

// read loads one file. The second return is false for files that are not
// renderable text.
func read(path string) (render.Source, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.Source{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !isText(data) {
		return render.Source{}, false, nil
	}
	return render.Source{Path: path, Content: string(data)}, true, nil
}

// isText reports whether data looks like renderable text: valid UTF-8 with
// no NUL bytes.
func isText(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	return utf8.Valid(data)
}
