package theme

import "github.com/charmbracelet/lipgloss"

// BorderStyleDropZone is the dashed outline of the upload area
var BorderStyleDropZone = lipgloss.Border{
	Top:         "╌",
	Bottom:      "╌",
	Left:        "╎",
	Right:       "╎",
	TopLeft:     "┌",
	TopRight:    "┐",
	BottomLeft:  "└",
	BottomRight: "┘",
}
