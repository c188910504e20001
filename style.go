package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	faint      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}).Render
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true).Render
	heading    = lipgloss.NewStyle().Bold(true).Render
)
