package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/siteindex/internal/output"
)

// Styles holds all UI styles for TUI rendering.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns styled components for TUI mode, in the same palette
// as the rest of the CLI output.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(output.ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorDarkGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(output.ColorLime)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorGray)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Active:  lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle(),
	}
}
