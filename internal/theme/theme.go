package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme captures the lipgloss styles used across the TUI.
type Theme struct {
	Header     lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Count      lipgloss.Style
	Cursor     lipgloss.Style
	Normal     lipgloss.Style
	Dim        lipgloss.Style
	CardBorder lipgloss.Style
	CardTitle  lipgloss.Style
	CardMeta   lipgloss.Style
	Summary    lipgloss.Style
}

// Default is the canonical name of the built-in default theme.
const Default = "default"

var themes = map[string]Theme{
	Default: {
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Count:      lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Cursor:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Normal:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		CardBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		CardTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		CardMeta:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Summary:    lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true),
	},
	"high_contrast": {
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Count:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Cursor:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Normal:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		CardBorder: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("15")).Padding(0, 1),
		CardTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		CardMeta:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Summary:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Italic(true),
	},
}

// Names returns the sorted list of available theme names.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the theme with the provided name, defaulting if unknown.
func ForName(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if theme, ok := themes[key]; ok {
		return theme
	}
	return themes[Default]
}
