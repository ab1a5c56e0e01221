package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// URLColorCode is the ANSI 256 color used for links
const URLColorCode = "141"

// FormatClickableURL formats a URL as a clickable hyperlink with terminal-compatible colors
func FormatClickableURL(displayText, url string) string {
	// OSC 8 escape sequence for hyperlinks: \033]8;;url\033\\text\033]8;;\033\\
	hyperlink := fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, displayText)

	return fmt.Sprintf("\033[38;5;%sm\033[4m%s\033[0m", URLColorCode, hyperlink)
}

// CreateCaptionStyle styles the lightbox caption
func CreateCaptionStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorWhite)).
		Bold(true).
		Align(lipgloss.Center)
}

// CreateHintStyle creates a style for hints and tips
func CreateHintStyle() lipgloss.Style {
	return CreateSecondaryTextStyle()
}
