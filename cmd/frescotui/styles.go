package main

import "github.com/charmbracelet/lipgloss"

// styles is the frescotui color and layout table.
type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	muted       lipgloss.Style

	timelinePane lipgloss.Style
	surfacePane  lipgloss.Style
	paneTitle    lipgloss.Style
	inputPane    lipgloss.Style
	footer       lipgloss.Style

	chatRole map[string]lipgloss.Style
	chatText lipgloss.Style
	toolLine lipgloss.Style
	note     lipgloss.Style

	text       lipgloss.Style
	heading1   lipgloss.Style
	heading2   lipgloss.Style
	card       lipgloss.Style
	listBullet lipgloss.Style
	button     lipgloss.Style
	badgeOK    lipgloss.Style
	badgeWarn  lipgloss.Style
	badgeErr   lipgloss.Style
	badgeMuted lipgloss.Style
	divider    lipgloss.Style
	inputBox   lipgloss.Style
	unknown    lipgloss.Style

	spinner lipgloss.Style
}

func newStyles() styles {
	accent := lipgloss.Color("205")
	ok := lipgloss.Color("78")
	warn := lipgloss.Color("214")
	bad := lipgloss.Color("203")
	info := lipgloss.Color("81")
	muted := lipgloss.Color("243")
	text := lipgloss.Color("252")

	return styles{
		title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(info).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(info),
		errorStatus: lipgloss.NewStyle().Foreground(bad).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(muted),

		timelinePane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		surfacePane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		paneTitle: lipgloss.NewStyle().
			Foreground(ok).
			Bold(true),
		inputPane: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ok).
			Padding(0, 1),
		footer: lipgloss.NewStyle().Foreground(muted),

		chatRole: map[string]lipgloss.Style{
			"user":      lipgloss.NewStyle().Foreground(ok).Bold(true),
			"assistant": lipgloss.NewStyle().Foreground(accent).Bold(true),
			"system":    lipgloss.NewStyle().Foreground(muted).Bold(true),
			"tool":      lipgloss.NewStyle().Foreground(warn).Bold(true),
		},
		chatText: lipgloss.NewStyle().Foreground(text),
		toolLine: lipgloss.NewStyle().Foreground(warn),
		note:     lipgloss.NewStyle().Foreground(muted).Italic(true),

		text: lipgloss.NewStyle().Foreground(text),
		heading1: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Underline(true),
		heading2: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(info).
			Padding(0, 1),
		listBullet: lipgloss.NewStyle().Foreground(info),
		button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("232")).
			Background(info).
			Bold(true).
			Padding(0, 1),
		badgeOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(ok).Padding(0, 1),
		badgeWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(warn).Padding(0, 1),
		badgeErr:   lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(bad).Padding(0, 1),
		badgeMuted: lipgloss.NewStyle().Foreground(text).Background(lipgloss.Color("238")).Padding(0, 1),
		divider:    lipgloss.NewStyle().Foreground(muted),
		inputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		unknown: lipgloss.NewStyle().Foreground(muted).Italic(true),

		spinner: lipgloss.NewStyle().Foreground(ok),
	}
}
