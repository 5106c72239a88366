// File: report/text.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/momentics/hioload-echo/api"
)

// Text prints a human-readable statistics block per disconnect.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	label func(a ...any) string
	value func(a ...any) string
}

// NewText writes to w, colored only when w is a terminal.
func NewText(w io.Writer) *Text {
	return NewTextColor(w, isTerminal(w))
}

// NewTextColor writes to w with coloring forced on or off.
func NewTextColor(w io.Writer, colored bool) *Text {
	label := color.New(color.FgCyan)
	value := color.New(color.Bold)
	if colored {
		label.EnableColor()
		value.EnableColor()
	} else {
		label.DisableColor()
		value.DisableColor()
	}
	return &Text{w: w, label: label.SprintFunc(), value: value.SprintFunc()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report implements api.Reporter.
func (t *Text) Report(ev api.DisconnectEvent) {
	s := ev.Stats
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s %s\n", t.label("Socket Type:"), t.value("INET"))
	fmt.Fprintf(t.w, "%s %s\n", t.label("Mode:"), t.value(s.Mode.String()))
	fmt.Fprintf(t.w, "%s %s\n", t.label("Total Bytes:"), t.value(s.TotalBytes))
	fmt.Fprintf(t.w, "%s %s\n", t.label("Total Packets:"), t.value(s.TotalPackets))
	fmt.Fprintf(t.w, "%s %s seconds\n", t.label("Elapsed Time:"), t.value(fmt.Sprintf("%.6f", s.ElapsedSeconds())))
	fmt.Fprintf(t.w, "%s %s bytes/sec, %s packets/sec\n", t.label("Throughput:"),
		t.value(fmt.Sprintf("%.2f", s.BytesPerSec)), t.value(fmt.Sprintf("%.2f", s.PacketsPerSec)))
}

var _ api.Reporter = (*Text)(nil)
