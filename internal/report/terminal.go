package report

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrap = 80

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or 80 when it cannot be determined.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return defaultWrap
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWrap
	}
	return w
}

// RenderTerminal styles markdown for an ANSI terminal.
func RenderTerminal(md []byte, width int) ([]byte, error) {
	if width <= 8 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("report: create terminal renderer: %w", err)
	}
	out, err := r.RenderBytes(md)
	if err != nil {
		return nil, fmt.Errorf("report: render terminal output: %w", err)
	}
	return out, nil
}
