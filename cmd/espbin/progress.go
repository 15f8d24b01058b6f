package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/moffa90/go-espbin/flasher"
)

const barWidth = 30

// newProgressPrinter returns a progress callback rendering to w. On a
// terminal it redraws an in-place bar; otherwise it prints one line per
// phase so piped output and CI logs stay readable.
func newProgressPrinter(w io.Writer) flasher.ProgressCallback {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	var lastPhase string
	return func(p flasher.Progress) {
		if p.Phase == flasher.PhaseComplete {
			if interactive && lastPhase != "" {
				fmt.Fprintf(w, "\r%-72s\r", "")
			}
			fmt.Fprintf(w, "transferred %d bytes in %s\n",
				p.BytesWritten, p.ElapsedTime.Round(10*time.Millisecond))
			lastPhase = ""
			return
		}

		if !interactive {
			if p.Phase != lastPhase {
				fmt.Fprintf(w, "%s...\n", p.Phase)
				lastPhase = p.Phase
			}
			return
		}

		filled := int(p.Percentage * barWidth / 100)
		if filled > barWidth {
			filled = barWidth
		}
		fmt.Fprintf(w, "\r%-10s [%-*s] %5.1f%%  %d/%d blocks",
			p.Phase, barWidth, strings.Repeat("=", filled),
			p.Percentage, p.CurrentBlock, p.TotalBlocks)
		lastPhase = p.Phase
	}
}
