package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dshills/cmdtree/internal/dispatcher"
)

const (
	ansiRed   = "\x1b[31m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// printer writes error reports, colored when the output is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: colorEnabled(w)}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

// Error prints err with an error: prefix, followed by any suggestions it
// carries.
func (p *printer) Error(err error) {
	p.Errorf("%v", err)

	var de *dispatcher.Error
	if errors.As(err, &de) {
		for _, s := range de.Suggestions {
			fmt.Fprintf(p.w, "  %s %s\n", p.paint(ansiDim, "did you mean:"), s)
		}
	}
}

// Errorf prints a formatted message with an error: prefix.
func (p *printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiRed, "error:"), fmt.Sprintf(format, args...))
}

// Help prints usage lines below an error.
func (p *printer) Help(lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.paint(ansiDim, "usage:"))
	for _, line := range lines {
		fmt.Fprintf(p.w, "  %s\n", line)
	}
}
