package render

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/codepix/internal/progress"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.ColumnWidth = 20
	opts.LineHeight = 2
	opts.TargetAspectRatio = 1.0
	opts.Threads = 1
	return opts
}

func goSources(n int) []Source {
	sources := make([]Source, n)
	for i := range sources {
		sources[i] = Source{
			Path:    fmt.Sprintf("file%03d.go", i),
			Content: fmt.Sprintf("package p%d\n\nfunc F%d() int {\n\treturn %d\n}\n", i, i, i),
		}
	}
	return sources
}

func TestRenderEmptyInput(t *testing.T) {
	var interrupt atomic.Bool
	_, err := Render(nil, progress.Discard(), &interrupt, testOptions())
	if !errors.Is(err, ErrNoLines) {
		t.Errorf("got %v, want ErrNoLines", err)
	}
	_, err = Render([]Source{{Path: "empty.go", Content: ""}}, progress.Discard(), &interrupt, testOptions())
	if !errors.Is(err, ErrNoLines) {
		t.Errorf("empty files: got %v, want ErrNoLines", err)
	}
}

func TestRenderUnknownTheme(t *testing.T) {
	var interrupt atomic.Bool
	opts := testOptions()
	opts.Theme = "definitely-not-a-theme"
	_, err := Render(goSources(2), progress.Discard(), &interrupt, opts)
	if !errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("got %v, want ErrThemeNotFound", err)
	}
}

func TestRenderSequential(t *testing.T) {
	var interrupt atomic.Bool
	res, err := Render(goSources(3), progress.Discard(), &interrupt, testOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Canvas.Width() != res.Dim.Width || res.Canvas.Height() != res.Dim.Height {
		t.Errorf("canvas %dx%d does not match layout %dx%d",
			res.Canvas.Width(), res.Canvas.Height(), res.Dim.Width, res.Dim.Height)
	}
	if res.LongestLine == 0 {
		t.Error("expected a non-zero longest line")
	}
	if res.IgnoredFiles != 0 {
		t.Errorf("IgnoredFiles = %d, want 0", res.IgnoredFiles)
	}
	// Some pixel must be non-black: the sources contain visible glyphs.
	nonBlack := false
	for _, b := range res.Canvas.Pix {
		if b != 0 {
			nonBlack = true
			break
		}
	}
	if !nonBlack {
		t.Error("rendered canvas is entirely black")
	}
}

// The parallel path must produce pixel-identical output to the sequential
// path: placement depends only on precomputed offsets, never on completion
// order.
func TestRenderParallelMatchesSequential(t *testing.T) {
	sources := goSources(24)
	for _, modulation := range []float64{0, 0.4} {
		var interrupt atomic.Bool
		seq := testOptions()
		seq.Threads = 1
		seq.ColorModulation = modulation
		seqRes, err := Render(sources, progress.Discard(), &interrupt, seq)
		if err != nil {
			t.Fatalf("sequential: %v", err)
		}

		par := seq
		par.Threads = 4
		parRes, err := Render(sources, progress.Discard(), &interrupt, par)
		if err != nil {
			t.Fatalf("parallel: %v", err)
		}

		if seqRes.LongestLine != parRes.LongestLine {
			t.Errorf("modulation %g: longest line %d vs %d",
				modulation, seqRes.LongestLine, parRes.LongestLine)
		}
		if !bytes.Equal(seqRes.Canvas.Pix, parRes.Canvas.Pix) {
			t.Errorf("modulation %g: parallel canvas differs from sequential", modulation)
		}
	}
}

// spyProgress records counter advances per span name so tests can observe
// how much work happened before cancellation.
type spyProgress struct {
	name   string
	counts *sync.Map // span name -> *int64
}

func newSpyProgress() *spyProgress {
	return &spyProgress{counts: &sync.Map{}}
}

func (s *spyProgress) AddChild(name string) progress.Progress {
	return &spyProgress{name: name, counts: s.counts}
}

func (s *spyProgress) SetName(string)           {}
func (s *spyProgress) Init(int, progress.Unit)  {}
func (s *spyProgress) Inc()                     { s.IncBy(1) }
func (s *spyProgress) Info(string)              {}
func (s *spyProgress) ShowThroughput(time.Time) {}

func (s *spyProgress) IncBy(n int) {
	v, _ := s.counts.LoadOrStore(s.name, new(int64))
	atomic.AddInt64(v.(*int64), int64(n))
}

func (s *spyProgress) count(name string) int64 {
	v, ok := s.counts.Load(name)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v.(*int64))
}

func TestRenderCancelledSequential(t *testing.T) {
	var interrupt atomic.Bool
	interrupt.Store(true)
	spy := newSpyProgress()
	_, err := Render(goSources(100), spy, &interrupt, testOptions())
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	// The flag was set before the render: no lines were rendered.
	if got := spy.count("render"); got != 0 {
		t.Errorf("rendered %d lines before honoring cancellation", got)
	}
}

func TestRenderCancelledParallel(t *testing.T) {
	sources := goSources(100)
	total := 0
	for _, src := range sources {
		total += lineCount(src.Content)
	}

	var interrupt atomic.Bool
	interrupt.Store(true)
	opts := testOptions()
	opts.Threads = 4
	spy := newSpyProgress()
	_, err := Render(sources, spy, &interrupt, opts)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	// Cancellation is cooperative at file granularity: in-flight files
	// complete, so some but not all lines are collected.
	got := spy.count("render")
	if got == 0 {
		t.Error("parallel cancellation collected no completed files")
	}
	if got >= int64(total) {
		t.Errorf("collected all %d lines despite pre-set cancellation", total)
	}
}

func TestRenderSkipsFilesWithoutSyntax(t *testing.T) {
	const marker = "zzmarkerzz"
	sources := []Source{
		{Path: "a.go", Content: "package a\n"},
		{Path: "blob.qqzz", Content: marker + "\n" + marker + "\n"},
		{Path: "b.go", Content: "package b\n"},
	}
	opts := testOptions()
	opts.IgnoreFilesWithoutSyntax = true

	var interrupt atomic.Bool
	res, err := Render(sources, progress.Discard(), &interrupt, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.IgnoredFiles != 1 {
		t.Errorf("IgnoredFiles = %d, want 1", res.IgnoredFiles)
	}
	// Two renderable lines remain; the skipped file contributes none.
	if res.LongestLine != len("package a") {
		t.Errorf("LongestLine = %d, want %d", res.LongestLine, len("package a"))
	}
	if res.Dim.LinesPerColumn*res.Dim.Columns < 2 {
		t.Error("layout does not cover the remaining lines")
	}
}

func TestRenderForceFullColumns(t *testing.T) {
	var interrupt atomic.Bool
	opts := testOptions()
	opts.ForceFullColumns = true
	res, err := Render(goSources(6), progress.Discard(), &interrupt, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	total := 0
	for _, src := range goSources(6) {
		total += lineCount(src.Content)
	}
	if res.Dim.Columns*res.Dim.LinesPerColumn != total {
		t.Errorf("force_full_columns: %d*%d != %d",
			res.Dim.Columns, res.Dim.LinesPerColumn, total)
	}
}

func TestRenderPlainMode(t *testing.T) {
	var interrupt atomic.Bool
	opts := testOptions()
	opts.Plain = true
	res, err := Render(goSources(3), progress.Discard(), &interrupt, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.LongestLine == 0 {
		t.Error("plain render produced nothing")
	}
}

// Five one-line files at a 3.0 target ratio land in two columns of three
// slots; the sixth, unused slot must be padded with the background color.
func TestRenderFillsTrailingSlots(t *testing.T) {
	sources := make([]Source, 5)
	for i := range sources {
		sources[i] = Source{Path: fmt.Sprintf("f%d.go", i), Content: "package p\n"}
	}
	opts := testOptions()
	opts.ColumnWidth = 10
	opts.TargetAspectRatio = 3.0

	var interrupt atomic.Bool
	res, err := Render(sources, progress.Discard(), &interrupt, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Dim.Columns != 2 || res.Dim.LinesPerColumn != 3 {
		t.Fatalf("got %d columns of %d lines, want 2 of 3", res.Dim.Columns, res.Dim.LinesPerColumn)
	}
	// The last rendered line ends before the column edge; its trailing
	// cells carry the theme background. The padded slot must match it.
	bg := res.Canvas.RGBAt(19, 2) // remainder of line 4, second column
	for x := 10; x < 20; x++ {
		for y := 4; y < 6; y++ {
			if got := res.Canvas.RGBAt(x, y); got != bg {
				t.Errorf("pad pixel (%d,%d) = %v, want background %v", x, y, got, bg)
			}
		}
	}
}

func TestClaimHandsOutEveryIndexOnce(t *testing.T) {
	var cursor atomic.Int64
	seen := make(map[int]bool)
	for {
		idx, ok := claim(&cursor, 10)
		if !ok {
			break
		}
		if seen[idx] {
			t.Fatalf("index %d claimed twice", idx)
		}
		seen[idx] = true
	}
	if len(seen) != 10 {
		t.Errorf("claimed %d indices, want 10", len(seen))
	}
}
