// Package watch triggers re-renders when any file under the input roots
// changes. Each trigger represents a complete render; nothing incremental
// happens here. Events are debounced so editor save bursts collapse into
// one trigger.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a trigger fires.
const DefaultDebounce = 250 * time.Millisecond

// Watcher observes a set of root paths and coalesces change events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	triggers chan struct{}
	errs     chan error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a watcher over the given roots. Directories are watched
// recursively; dot directories and common dependency directories are not
// descended into.
func New(roots []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		triggers: make(chan struct{}, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.add(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Triggers returns the channel that receives one value per debounced burst
// of changes.
func (w *Watcher) Triggers() <-chan struct{} { return w.triggers }

// Errors returns the channel watcher errors are reported on.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and releases its OS resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// add registers a root and, for directories, its whole subtree.
func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skippable(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// skippable mirrors the scan package's directory filter.
func skippable(name string) bool {
	switch name {
	case ".git", ".hg", ".svn", "node_modules", "target", "vendor":
		return true
	}
	return strings.HasPrefix(name, ".")
}

// loop converts raw fsnotify events into debounced triggers. New
// directories are added to the watch on creation.
func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skippable(filepath.Base(ev.Name)) {
					_ = w.fsw.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.triggers <- struct{}{}:
			default:
			}
		}
	}
}
