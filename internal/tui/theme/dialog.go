package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// CreateModalStyle creates the frame of a modal dialog
func CreateModalStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBrightPurple)).
		Padding(1, 2)
}

// CreateModalTitleStyle creates a style for modal titles
func CreateModalTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorBrightPurple)).
		Bold(true).
		MarginBottom(1)
}

// CreateFieldLabelStyle creates a style for form field labels
func CreateFieldLabelStyle(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().Width(10)
	if focused {
		return style.Foreground(lipgloss.Color(ColorBrightPurple)).Bold(true)
	}
	return style.Foreground(lipgloss.Color(ColorMuted))
}

// CreateDialogButtonStyle creates a style for dialog buttons
func CreateDialogButtonStyle(selected bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Padding(0, 2).
		Margin(0, 1).
		Border(lipgloss.RoundedBorder())

	if selected {
		return style.
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color(ColorHeliotrope)).
			BorderForeground(lipgloss.Color(ColorBrightPurple))
	}

	return style.
		Foreground(lipgloss.Color(ColorHeliotrope)).
		BorderForeground(lipgloss.Color(ColorHeliotrope))
}

// CreateDropZoneStyle styles the upload area; highlighted while something is dragged over it
func CreateDropZoneStyle(width int, highlighted bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Width(width).
		Border(BorderStyleDropZone).
		Padding(1, 2).
		Align(lipgloss.Center)

	if highlighted {
		return style.
			BorderForeground(lipgloss.Color(ColorBrightPurple)).
			Background(lipgloss.Color(ColorLavender)).
			Foreground(lipgloss.Color("#000000"))
	}
	return style.
		BorderForeground(lipgloss.Color(ColorHeliotrope)).
		Foreground(lipgloss.Color(ColorMuted))
}
