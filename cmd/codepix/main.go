// Package main is the entry point for the codepix renderer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/dshills/codepix/internal/config"
	"github.com/dshills/codepix/internal/encode"
	"github.com/dshills/codepix/internal/progress"
	"github.com/dshills/codepix/internal/render"
	"github.com/dshills/codepix/internal/scan"
	"github.com/dshills/codepix/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli, opts, ok := parseFlags()
	if !ok {
		return 2
	}
	if cli.showVersion {
		fmt.Printf("codepix %s (%s)\n", version, commit)
		return 0
	}
	if len(cli.inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input paths given")
		flag.Usage()
		return 2
	}

	// The render core polls this flag; it never owns its lifecycle.
	var interrupt atomic.Bool
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		interrupt.Store(true)
		<-signals
		os.Exit(130)
	}()

	prog := progress.NewLog(os.Stderr)

	renderOnce := func() int {
		sources, err := scan.Sources(cli.inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		res, err := render.Render(sources, prog, &interrupt, opts)
		if err != nil {
			if errors.Is(err, render.ErrCancelled) {
				fmt.Fprintln(os.Stderr, "Cancelled")
				return 130
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := encode.Save(cli.output, res.Canvas.Image()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		prog.Info(fmt.Sprintf("wrote %s", cli.output))
		return 0
	}

	if !cli.watch {
		return renderOnce()
	}

	w, err := watch.New(cli.inputs, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer w.Close()

	// Render errors in watch mode are reported but not fatal; the next
	// change gets another chance.
	if code := renderOnce(); code == 130 {
		return code
	}
	for {
		select {
		case <-w.Triggers():
			if interrupt.Load() {
				return 130
			}
			if code := renderOnce(); code == 130 {
				return code
			}
		case err := <-w.Errors():
			fmt.Fprintf(os.Stderr, "Warning: watch: %v\n", err)
		}
	}
}

// cliOptions holds the flags that belong to the wrapper, not the renderer.
type cliOptions struct {
	output      string
	configPath  string
	watch       bool
	showVersion bool
	inputs      []string
}

// parseFlags builds render options from the defaults, the optional config
// file, and the command line, in that order of precedence.
func parseFlags() (cliOptions, render.Options, bool) {
	var cli cliOptions
	opts := render.DefaultOptions()

	flag.StringVar(&cli.output, "o", "output.png", "Output image path (.png, .bmp, .tiff)")
	flag.StringVar(&cli.configPath, "config", defaultConfigPath(), "Path to TOML configuration file")
	flag.BoolVar(&cli.watch, "watch", false, "Re-render whenever an input changes")
	flag.BoolVar(&cli.showVersion, "version", false, "Print version and exit")

	columnWidth := flag.Int("column-width", opts.ColumnWidth, "Column width in pixels (one pixel per character)")
	lineHeight := flag.Int("line-height", opts.LineHeight, "Height of one rendered line in pixels")
	aspectRatio := flag.Float64("aspect-ratio", opts.TargetAspectRatio, "Target width/height ratio of the output image")
	threads := flag.Int("threads", opts.Threads, "Worker count (0 = number of CPUs)")
	theme := flag.String("theme", opts.Theme, "Highlight theme name")
	fgColor := flag.String("fg-color", "", "Override all foreground colors (RRGGBB)")
	bgColor := flag.String("bg-color", "", "Override all background colors (RRGGBB)")
	highlightTruncated := flag.Bool("highlight-truncated", opts.HighlightTruncatedLines, "Highlight the dropped tail of over-long lines")
	showCurrent := flag.Bool("show-current-file", opts.ShowCurrentFile, "Report each file as it is rendered")
	forceFullColumns := flag.Bool("force-full-columns", opts.ForceFullColumns, "Only allow layouts with no partially filled trailing column")
	plain := flag.Bool("plain", opts.Plain, "Disable syntax highlighting")
	ignoreWithoutSyntax := flag.Bool("ignore-files-without-syntax", opts.IgnoreFilesWithoutSyntax, "Skip files with no resolvable syntax")
	colorModulation := flag.Float64("color-modulation", opts.ColorModulation, "Strength of the per-file hue variation")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: codepix [flags] <path>...\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Renders source files into a single syntax-highlighted image.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	cli.inputs = flag.Args()

	if cli.configPath != "" {
		loaded, err := config.Load(cli.configPath, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli, opts, false
		}
		opts = loaded
	}

	// Explicit flags win over the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["column-width"] {
		opts.ColumnWidth = *columnWidth
	}
	if set["line-height"] {
		opts.LineHeight = *lineHeight
	}
	if set["aspect-ratio"] {
		opts.TargetAspectRatio = *aspectRatio
	}
	if set["threads"] {
		opts.Threads = *threads
	}
	if set["theme"] {
		opts.Theme = *theme
	}
	if set["highlight-truncated"] {
		opts.HighlightTruncatedLines = *highlightTruncated
	}
	if set["show-current-file"] {
		opts.ShowCurrentFile = *showCurrent
	}
	if set["force-full-columns"] {
		opts.ForceFullColumns = *forceFullColumns
	}
	if set["plain"] {
		opts.Plain = *plain
	}
	if set["ignore-files-without-syntax"] {
		opts.IgnoreFilesWithoutSyntax = *ignoreWithoutSyntax
	}
	if set["color-modulation"] {
		opts.ColorModulation = *colorModulation
	}
	if *fgColor != "" {
		c, err := config.ParseColor(*fgColor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli, opts, false
		}
		opts.FGColor = &c
	}
	if *bgColor != "" {
		c, err := config.ParseColor(*bgColor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli, opts, false
		}
		opts.BGColor = &c
	}
	return cli, opts, true
}

// defaultConfigPath returns the conventional config location, or empty when
// no home directory is available.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codepix.toml")
}
