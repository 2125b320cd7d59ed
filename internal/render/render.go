package render

import (
	"fmt"
	"image/color"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dshills/codepix/internal/canvas"
	"github.com/dshills/codepix/internal/progress"
)

// Result is a finished render: the composed canvas plus summary statistics.
type Result struct {
	Canvas *canvas.Canvas

	// Dim is the layout the canvas was rendered with.
	Dim Dimension

	// LongestLine is the widest line encountered, in character cells.
	LongestLine int

	// IgnoredFiles counts inputs skipped for lacking a syntax definition.
	IgnoredFiles int
}

// plannedFile is one renderable input with its precomputed placement.
type plannedFile struct {
	src       Source
	lines     int
	lineStart int // global index of the file's first line
}

// Render composes the sources into a single image. Sources are placed in
// input order regardless of how rendering is scheduled. The interrupt flag
// is owned by the caller and polled at per-file granularity; when it is
// observed the render returns ErrCancelled. Progress reporting is purely
// observational.
func Render(sources []Source, prog progress.Progress, interrupt *atomic.Bool, opts Options) (*Result, error) {
	start := time.Now()

	files, totalLines, numIgnored := plan(sources, opts)
	if totalLines == 0 {
		return nil, fmt.Errorf("%w: found nothing to render in %d files", ErrNoLines, len(sources))
	}

	dim, err := ComputeDimension(opts.TargetAspectRatio, opts.ColumnWidth, totalLines,
		opts.LineHeight, opts.ForceFullColumns, prog.AddChild("determine dimensions"))
	if err != nil {
		return nil, err
	}
	prog.Info(fmt.Sprintf("image dimensions: %d x %d x %d [w x h x channels] (%s)",
		dim.Width, dim.Height, canvas.BytesPerPixel,
		humanize.IBytes(uint64(dim.Width*dim.Height*canvas.BytesPerPixel))))

	cache, err := NewCache(opts.Theme)
	if err != nil {
		return nil, err
	}

	img := canvas.New(dim.Width, dim.Height)

	prog.SetName("process")
	prog.Init(len(files), progress.Unit{Label: "files", Mode: progress.ModePercentage})
	lineProg := prog.AddChild("render")
	lineProg.Init(totalLines, progress.Unit{Label: "lines", Mode: progress.ModeThroughput})

	threads := opts.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	threads = min(max(threads, 1), runtime.NumCPU())

	res := &Result{Canvas: img, Dim: dim, IgnoredFiles: numIgnored}
	var background *color.RGBA
	if threads < 2 {
		background, err = renderSequential(img, files, cache, prog, lineProg, interrupt, dim, opts, res)
	} else {
		background, err = renderParallel(img, files, cache, threads, prog, lineProg, interrupt, dim, opts, res)
	}
	if err != nil {
		return nil, err
	}

	fillTrailing(img, totalLines, background, dim, opts)

	prog.ShowThroughput(start)
	lineProg.ShowThroughput(start)
	prog.Info(fmt.Sprintf("longest encountered line in chars: %d", res.LongestLine))
	if numIgnored != 0 {
		prog.Info(fmt.Sprintf("ignored %d files due to missing syntax", numIgnored))
	}
	return res, nil
}

// plan counts lines per file, assigns each file its global line offset, and
// drops files without a resolvable syntax when configured to. The returned
// total excludes dropped files.
func plan(sources []Source, opts Options) (files []plannedFile, totalLines, numIgnored int) {
	files = make([]plannedFile, 0, len(sources))
	for _, src := range sources {
		n := lineCount(src.Content)
		if opts.IgnoreFilesWithoutSyntax && !HasSyntax(src.Path) {
			numIgnored++
			continue
		}
		files = append(files, plannedFile{src: src, lines: n, lineStart: totalLines})
		totalLines += n
	}
	return files, totalLines, numIgnored
}

// renderSequential renders every file directly into the shared canvas, in
// input order, on the calling goroutine. The highlighter is switched only
// when a file resolves to a different syntax than the current one.
func renderSequential(img *canvas.Canvas, files []plannedFile, cache *Cache,
	prog, lineProg progress.Progress, interrupt *atomic.Bool,
	dim Dimension, opts Options, res *Result) (*color.RGBA, error) {

	var background *color.RGBA
	highlighter := cache.PlainHighlighter()
	for fileIndex, f := range files {
		prog.Inc()
		if interrupt.Load() {
			return nil, fmt.Errorf("%w: interrupted before %s", ErrCancelled, f.src.Path)
		}
		if !opts.Plain {
			hl, err := cache.HighlighterForFile(f.src.Path)
			if err != nil {
				return nil, err
			}
			if hl != nil {
				highlighter = hl
			}
		}
		if opts.ShowCurrentFile {
			prog.Info(f.src.Path)
		}
		out, err := RenderChunk(f.src.Content, img, highlighter.HighlightLine, ChunkContext{
			ColumnWidth:        opts.ColumnWidth,
			LineHeight:         opts.LineHeight,
			LineNum:            f.lineStart,
			LinesPerColumn:     dim.LinesPerColumn,
			HighlightTruncated: opts.HighlightTruncatedLines,
			FG:                 opts.FGColor,
			BG:                 opts.BGColor,
			FileIndex:          fileIndex,
			ColorModulation:    opts.ColorModulation,
		})
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", f.src.Path, err)
		}
		res.LongestLine = max(res.LongestLine, out.LongestLine)
		if out.Background != nil {
			background = out.Background
		}
		lineProg.IncBy(f.lines)
	}
	return background, nil
}

// chunkMessage is one finished file travelling from a worker to the
// collector. The buffer is owned exclusively by the worker until it is sent.
type chunkMessage struct {
	buf       *canvas.Canvas
	out       ChunkResult
	lines     int
	lineStart int
	err       error
}

// renderParallel distributes files to a fixed pool of workers through an
// atomic cursor. Each worker renders into a private single-column buffer and
// sends it to the collector running here, which alone writes the shared
// canvas. Placement uses the file's precomputed global line offset, so the
// final image is independent of completion order.
func renderParallel(img *canvas.Canvas, files []plannedFile, cache *Cache, threads int,
	prog, lineProg progress.Progress, interrupt *atomic.Bool,
	dim Dimension, opts Options, res *Result) (*color.RGBA, error) {

	var (
		cursor  atomic.Int64
		stopped atomic.Bool
		wg      sync.WaitGroup
	)
	// Sends never block: one slot per file.
	results := make(chan chunkMessage, len(files))

	for tid := 0; tid < threads; tid++ {
		tid := tid
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := cache.Clone()
			highlighter := state.PlainHighlighter()
			workerProg := lineProg.AddChild(fmt.Sprintf("thread %d", tid))
			for {
				fileIndex, ok := claim(&cursor, len(files))
				if !ok {
					return
				}
				f := files[fileIndex]
				if !opts.Plain {
					hl, err := state.HighlighterForFile(f.src.Path)
					if err != nil {
						results <- chunkMessage{err: err}
						return
					}
					if hl != nil {
						highlighter = hl
					}
				}
				if opts.ShowCurrentFile {
					workerProg.Info(f.src.Path)
				}
				buf := canvas.New(opts.ColumnWidth, f.lines*opts.LineHeight)
				out, err := RenderChunk(f.src.Content, buf, highlighter.HighlightLine, ChunkContext{
					ColumnWidth:        opts.ColumnWidth,
					LineHeight:         opts.LineHeight,
					LineNum:            0,
					LinesPerColumn:     max(f.lines, 1),
					HighlightTruncated: opts.HighlightTruncatedLines,
					FG:                 opts.FGColor,
					BG:                 opts.BGColor,
					FileIndex:          fileIndex,
					ColorModulation:    opts.ColorModulation,
				})
				if err != nil {
					results <- chunkMessage{err: fmt.Errorf("rendering %s: %w", f.src.Path, err)}
					return
				}
				results <- chunkMessage{buf: buf, out: out, lines: f.lines, lineStart: f.lineStart}
				// Cooperative cancellation at file granularity: finish
				// the file just rendered, then stop claiming.
				if stopped.Load() || interrupt.Load() {
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var background *color.RGBA
	var firstErr error
	for msg := range results {
		if msg.err != nil {
			if firstErr == nil {
				firstErr = msg.err
			}
			stopped.Store(true)
			continue
		}
		if firstErr != nil {
			// Drain only; the canvas stays as-is after a failure.
			continue
		}
		res.LongestLine = max(res.LongestLine, msg.out.LongestLine)
		if msg.out.Background != nil {
			background = msg.out.Background
		}
		for line := 0; line < msg.lines; line++ {
			x, y := Offsets(msg.lineStart+line, dim.LinesPerColumn, opts.ColumnWidth, opts.LineHeight)
			img.Blit(msg.buf, line*opts.LineHeight, x, y, opts.ColumnWidth, opts.LineHeight)
		}
		lineProg.IncBy(msg.lines)
		prog.Inc()
		if interrupt.Load() && firstErr == nil {
			firstErr = fmt.Errorf("%w: interrupted while collecting results", ErrCancelled)
			stopped.Store(true)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return background, nil
}

// claim advances the shared cursor by compare-and-swap and returns the
// claimed index, or false once all work is handed out.
func claim(cursor *atomic.Int64, limit int) (int, bool) {
	for {
		cur := cursor.Load()
		if cur >= int64(limit) {
			return 0, false
		}
		if cursor.CompareAndSwap(cur, cur+1) {
			return int(cur), true
		}
	}
}

// fillTrailing paints the line slots past the last rendered line, padding
// the final partial column with the last observed background color.
func fillTrailing(img *canvas.Canvas, renderedLines int, background *color.RGBA, dim Dimension, opts Options) {
	fill := color.RGBA{A: 0xff}
	if background != nil {
		fill = *background
	}
	for line := renderedLines; line < dim.LinesPerColumn*dim.Columns; line++ {
		x, y := Offsets(line, dim.LinesPerColumn, opts.ColumnWidth, opts.LineHeight)
		img.FillRect(x, y, opts.ColumnWidth, opts.LineHeight, fill)
	}
}
