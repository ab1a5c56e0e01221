package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// CreateHeaderStyle creates the site title style
func CreateHeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorBrightPurple)).
		MarginLeft(1)
}

// CreateNavLinkStyle styles one navigation link; the current page is underlined
func CreateNavLinkStyle(current bool) lipgloss.Style {
	style := lipgloss.NewStyle().Padding(0, 1)
	if current {
		return style.Foreground(lipgloss.Color(ColorBrightPurple)).Bold(true).Underline(true)
	}
	return style.Foreground(lipgloss.Color(ColorHeliotrope))
}

// CreateSectionHeaderStyle creates a consistent section header style
func CreateSectionHeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHeliotrope)).
		MarginBottom(1)
}

// CreateItemStyle styles one gallery row
func CreateItemStyle(selected bool) lipgloss.Style {
	style := lipgloss.NewStyle().PaddingLeft(1)
	if selected {
		return style.
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color(ColorLavender)).
			Bold(true)
	}
	return style.Foreground(lipgloss.Color(ColorWhite))
}

// CreateSecondaryTextStyle creates a consistent secondary text style
func CreateSecondaryTextStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true)
}

// CreateFooterStyle creates a consistent footer style
func CreateFooterStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		MarginLeft(1)
}

// CreateLoadingStyle creates a consistent loading state style
func CreateLoadingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
}

// CreateErrorStyle creates a consistent error style
func CreateErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
}
