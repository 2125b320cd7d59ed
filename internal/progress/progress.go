// Package progress defines the observational progress sink the renderer
// reports to. Implementations never influence render correctness; the core
// only calls into the interface and a Discard sink is always a valid choice.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Mode selects how a task's counter is presented.
type Mode uint8

const (
	// ModePlain shows the raw counter.
	ModePlain Mode = iota
	// ModePercentage shows the counter as a percentage of the total.
	ModePercentage
	// ModeThroughput shows the counter with items-per-second.
	ModeThroughput
)

// Unit describes what a task's counter counts.
type Unit struct {
	Label string
	Mode  Mode
}

// Progress is a sink for hierarchical render progress. Implementations must
// be safe for concurrent use; worker goroutines report through child spans.
type Progress interface {
	// AddChild creates a named child span.
	AddChild(name string) Progress

	// SetName renames the span.
	SetName(name string)

	// Init declares the expected total and unit. A negative total means
	// unknown.
	Init(total int, unit Unit)

	// Inc advances the counter by one.
	Inc()

	// IncBy advances the counter by n.
	IncBy(n int)

	// Info emits a free-form message attributed to this span.
	Info(msg string)

	// ShowThroughput reports items processed since start as a rate.
	ShowThroughput(start time.Time)
}

// Discard returns a Progress that drops everything.
func Discard() Progress { return discard{} }

type discard struct{}

func (discard) AddChild(string) Progress { return discard{} }
func (discard) SetName(string)           {}
func (discard) Init(int, Unit)           {}
func (discard) Inc()                     {}
func (discard) IncBy(int)                {}
func (discard) Info(string)              {}
func (discard) ShowThroughput(time.Time) {}

// Log is a Progress that writes human-readable lines to a writer. Counter
// updates are silent unless the writer is a terminal, in which case periodic
// status lines are emitted; Info and ShowThroughput always print.
type Log struct {
	mu       *sync.Mutex
	w        io.Writer
	name     string
	isTTY    bool
	total    int
	unit     Unit
	count    int
	lastEcho time.Time
}

// NewLog creates a Log progress writing to w.
func NewLog(w io.Writer) *Log {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &Log{mu: &sync.Mutex{}, w: w, isTTY: isTTY}
}

// AddChild creates a child sharing the parent's writer and lock.
func (l *Log) AddChild(name string) Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := name
	if l.name != "" {
		child = l.name + "." + name
	}
	return &Log{mu: l.mu, w: l.w, isTTY: l.isTTY, name: child}
}

// SetName renames the span.
func (l *Log) SetName(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = name
}

// Init declares the expected total and unit.
func (l *Log) Init(total int, unit Unit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = total
	l.unit = unit
	l.count = 0
}

// Inc advances the counter by one.
func (l *Log) Inc() { l.IncBy(1) }

// IncBy advances the counter by n.
func (l *Log) IncBy(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count += n
	if !l.isTTY {
		return
	}
	// Echo at most a few times a second to keep terminals readable.
	if now := time.Now(); now.Sub(l.lastEcho) >= 250*time.Millisecond {
		l.lastEcho = now
		l.echoLocked()
	}
}

// Info emits a message attributed to this span.
func (l *Log) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.name != "" {
		fmt.Fprintf(l.w, "%s: %s\n", l.name, msg)
		return
	}
	fmt.Fprintln(l.w, msg)
}

// ShowThroughput prints the rate of items processed since start.
func (l *Log) ShowThroughput(start time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	elapsed := time.Since(start)
	if elapsed <= 0 || l.count == 0 {
		return
	}
	rate := float64(l.count) / elapsed.Seconds()
	fmt.Fprintf(l.w, "%s: %d %s in %s (%.0f %s/s)\n",
		l.name, l.count, l.unit.Label, elapsed.Round(time.Millisecond), rate, l.unit.Label)
}

// Count returns the current counter value.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *Log) echoLocked() {
	switch l.unit.Mode {
	case ModePercentage:
		if l.total > 0 {
			fmt.Fprintf(l.w, "%s: %d/%d %s (%.0f%%)\n",
				l.name, l.count, l.total, l.unit.Label, 100*float64(l.count)/float64(l.total))
			return
		}
		fallthrough
	default:
		fmt.Fprintf(l.w, "%s: %d %s\n", l.name, l.count, l.unit.Label)
	}
}
