// Package console renders a running conversation to a terminal-style sink,
// one chunk per produced message plus a line per tool sub-step, so progress
// is observable live rather than only after a run completes.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/stockmesh/core"
)

const toolResultPreview = 160

// Console writes human-readable transcript chunks to w. Safe for concurrent
// use; message rendering and tool-step rendering may interleave but never
// tear within a chunk.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a console writing to w; a nil w defaults to stdout.
func New(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Cycle announces the start of a polling cycle.
func (c *Console) Cycle(n int, subject string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n[%s] cycle %d: analyzing %s\n", at.Format("15:04:05"), n, subject)
}

// Message renders one completed agent message.
func (c *Console) Message(msg core.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n---------- %d. %s ----------\n%s\n", msg.TurnIndex, msg.Sender, msg.Content)
}

// OnToolStep implements core.ToolObserver, rendering one tool invocation.
func (c *Console) OnToolStep(step core.ToolStep) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[tool] %s -> %s: %s\n", step.Agent, step.Tool, preview(step.Result))
}

// RunFailed reports an aborted run.
func (c *Console) RunFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n!! run failed: %v\n", err)
}

// Waiting announces the sleep before the next cycle.
func (c *Console) Waiting(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\nwaiting %s before next update...\n", interval)
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= toolResultPreview {
		return s
	}

	// Back up to a rune boundary so the cut never tears a multibyte rune.
	cut := toolResultPreview
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
