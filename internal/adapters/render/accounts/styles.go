package accounts

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title         lipgloss.Style
	header        lipgloss.Style
	email         lipgloss.Style
	detail        lipgloss.Style
	meta          lipgloss.Style
	empty         lipgloss.Style
	section       lipgloss.Style
	badgeNormal   lipgloss.Style
	badgeOffline  lipgloss.Style
	badgeDisabled lipgloss.Style
	badgeInactive lipgloss.Style
	badgeError    lipgloss.Style
	selectedMark  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:         lipgloss.NewStyle().Bold(true),
		header:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		email:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:         lipgloss.NewStyle().Faint(true),
		section:       lipgloss.NewStyle().MarginTop(1),
		badgeNormal:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		badgeOffline:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		badgeDisabled: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		badgeInactive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("178")),
		badgeError:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		selectedMark:  lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
	}
}

func (s styles) badge(status string) lipgloss.Style {
	switch status {
	case "offline":
		return s.badgeOffline
	case "disabled":
		return s.badgeDisabled
	case "inactive":
		return s.badgeInactive
	case "error":
		return s.badgeError
	default:
		return s.badgeNormal
	}
}
