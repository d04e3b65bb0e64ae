// Package report renders a finished batch for people and for scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/me/mcp/pkg/model"
)

const maxCommandWidth = 40

// Print writes a summary table of r to w. Status icons are used when w is a
// terminal.
func Print(w io.Writer, r *model.BatchReport) {
	if r == nil {
		return
	}
	icons := isTerminal(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Batch Summary ===")
	fmt.Fprintf(w, "Batch: %s\n", r.ID)
	if r.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", r.Source)
	}
	fmt.Fprintf(w, "Quantum: %s\n", r.Quantum)
	fmt.Fprintf(w, "Total Duration: %s\n", FormatDuration(r.Duration()))
	fmt.Fprintln(w)

	if len(r.Processes) > 0 {
		width := len("Command")
		for _, p := range r.Processes {
			width = max(width, len(p.Command))
		}
		width = min(width, maxCommandWidth)

		fmt.Fprintf(w, "%3s  %8s  %-*s  %6s  %10s  %10s  %s\n", "#", "PID", width, "Command", "Slices", "CPU", "Memory", "Status")
		fmt.Fprintln(w, strings.Repeat("-", width+64))

		for _, p := range r.Processes {
			cmd := p.Command
			if len(cmd) > width {
				cmd = cmd[:width-3] + "..."
			}
			fmt.Fprintf(w, "%3d  %8d  %-*s  %6d  %10s  %10s  %s\n",
				p.Index, p.PID, width, cmd, p.Slices,
				FormatDuration(p.Exit.UserTime+p.Exit.SystemTime),
				FormatMemory(p.Exit.MaxRSSKB),
				status(p.Exit, icons))
		}
		fmt.Fprintln(w, strings.Repeat("-", width+64))
	}

	fmt.Fprintf(w, "%d finished, %d errored\n", r.Succeeded(), r.Errored())
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *model.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func status(e model.ExitInfo, icons bool) string {
	if !icons {
		return e.Describe()
	}
	icon := "✓"
	if e.Outcome.Errored() {
		icon = "✗"
	}
	return icon + " " + e.Describe()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// FormatMemory formats a size in KiB, or "-" when unknown.
func FormatMemory(kb int64) string {
	if kb <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(kb) * 1024)
}
