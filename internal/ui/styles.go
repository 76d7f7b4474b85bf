package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the prompt and the status lines.
var (
	accent  = lipgloss.Color("#7D56F4")
	green   = lipgloss.Color("#04B575")
	red     = lipgloss.Color("#FF4141")
	yellow  = lipgloss.Color("#FFC107")
	muted   = lipgloss.Color("#626262")
	neutral = lipgloss.Color("#9e9e9e")
)

var (
	bold = lipgloss.NewStyle().Bold(true)

	stylePrompt  = bold.Foreground(accent)
	styleSuccess = bold.Foreground(green)
	styleWarning = bold.Foreground(yellow)
	styleError   = bold.Foreground(red)
	styleHelp    = lipgloss.NewStyle().Foreground(muted)

	// Choices are padded so the highlight reads as a button.
	styleChoice       = lipgloss.NewStyle().Padding(0, 1).Foreground(neutral)
	styleChoiceActive = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(accent)
)
