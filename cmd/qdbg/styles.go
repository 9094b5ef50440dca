package main

import "github.com/charmbracelet/lipgloss"

var (
	sourceStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(0, 1)

	stackStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9ece6a")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#565f89")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff9e64"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))

	currentLineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0af68"))

	cursorLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))

	breakpointStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))

	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a"))

	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
)
