package tui

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Available spinner animations
var spinnerAnimations = []spinner.Spinner{
	// Braille dots (classic)
	{
		Frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
		FPS:    80 * time.Millisecond,
	},
	// Bouncing ball
	{
		Frames: []string{"⠁", "⠂", "⠄", "⡀", "⢀", "⠠", "⠐", "⠈"},
		FPS:    100 * time.Millisecond,
	},
	// Growing dots
	{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    80 * time.Millisecond,
	},
	// Arc
	{
		Frames: []string{"◜", "◠", "◝", "◞", "◡", "◟"},
		FPS:    100 * time.Millisecond,
	},
	// Circle quarters
	{
		Frames: []string{"◴", "◷", "◶", "◵"},
		FPS:    120 * time.Millisecond,
	},
	// Box bounce
	{
		Frames: []string{"▖", "▘", "▝", "▗"},
		FPS:    120 * time.Millisecond,
	},
}

// Spinner colors for variety
var spinnerColors = []lipgloss.Color{
	lipgloss.Color("#FF79C6"), // Pink
	lipgloss.Color("#8BE9FD"), // Cyan
	lipgloss.Color("#50FA7B"), // Green
	lipgloss.Color("#FFB86C"), // Orange
	lipgloss.Color("#BD93F9"), // Purple
}

// newSpinner returns a spinner with a random animation and color.
func newSpinner() spinner.Model {
	// #nosec G404 -- Using math/rand for UI animation variety, not cryptography
	anim := spinnerAnimations[rand.Intn(len(spinnerAnimations))]
	// #nosec G404 -- Using math/rand for UI animation variety, not cryptography
	color := spinnerColors[rand.Intn(len(spinnerColors))]

	return spinner.New(
		spinner.WithSpinner(anim),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(color).Bold(true)),
	)
}
