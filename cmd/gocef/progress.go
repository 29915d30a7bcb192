package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/zaroxh/gocef/install"
)

// progressPrinter renders the installation phases on a terminal. On a
// TTY the download phase draws an in-place bar; otherwise it falls back
// to line output at 10% steps.
type progressPrinter struct {
	out        io.Writer
	isTTY      bool
	lastRender time.Time
	lastPct    int
	barOpen    bool
}

func terminalProgress(out io.Writer) install.Progress {
	p := &progressPrinter{out: out, lastPct: -1}
	if f, ok := out.(*os.File); ok {
		p.isTTY = term.IsTerminal(int(f.Fd()))
	}
	return install.Progress{
		Locating:    func() { p.phase("Locating bundle") },
		Downloading: p.download,
		Extracting:  func() { p.phase("Extracting") },
		Install:     func() { p.phase("Finalizing") },
	}
}

func (p *progressPrinter) phase(msg string) {
	p.closeBar()
	fmt.Fprintf(p.out, "%s...\n", msg)
}

func (p *progressPrinter) download(fraction float64) {
	pct := int(fraction * 100)
	if p.isTTY {
		// Rate-limit redraws; always draw the final frame.
		now := time.Now()
		if fraction < 1 && now.Sub(p.lastRender) < 100*time.Millisecond {
			return
		}
		p.lastRender = now
		p.renderBar(pct)
		if fraction >= 1 {
			p.closeBar()
		}
		return
	}
	// Non-TTY: one line per 10% step.
	step := pct / 10 * 10
	if step > p.lastPct {
		p.lastPct = step
		fmt.Fprintf(p.out, "Downloading... %d%%\n", step)
	}
}

func (p *progressPrinter) renderBar(pct int) {
	width := 80
	if f, ok := p.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	filled := pct * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(p.out, "\rDownloading [%s] %3d%%\033[K", bar, pct)
	p.barOpen = true
}

func (p *progressPrinter) closeBar() {
	if p.barOpen {
		fmt.Fprintln(p.out)
		p.barOpen = false
	}
}
