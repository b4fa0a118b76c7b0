package outwriter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/huangsam/archflow/schema"
	"golang.org/x/term"
)

const progressBarWidth = 30

// ProgressBar draws one bar per stage. On a terminal the bar is redrawn in
// place; otherwise a line is written each time a stage finishes.
type ProgressBar struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	last        map[schema.Stage]int
}

// NewProgressBar returns a bar that writes to w.
func NewProgressBar(w io.Writer) *ProgressBar {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &ProgressBar{w: w, interactive: interactive, last: make(map[schema.Stage]int)}
}

// Update records percent for stage and redraws. Repeated values are ignored.
func (b *ProgressBar) Update(stage schema.Stage, percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, seen := b.last[stage]
	if seen && prev == percent {
		return
	}
	b.last[stage] = percent

	done := percent >= schema.ProgressDone
	switch {
	case b.interactive && done:
		_, _ = fmt.Fprintf(b.w, "\r%s\n", renderBar(stage, percent))
	case b.interactive:
		_, _ = fmt.Fprintf(b.w, "\r%s", renderBar(stage, percent))
	case done:
		_, _ = fmt.Fprintln(b.w, renderBar(stage, percent))
	}
}

func renderBar(stage schema.Stage, percent int) string {
	percent = max(0, min(percent, schema.ProgressDone))
	filled := percent * progressBarWidth / schema.ProgressDone
	return fmt.Sprintf("%-8s [%s%s] %3d%%", stage, strings.Repeat("#", filled), strings.Repeat(".", progressBarWidth-filled), percent)
}
