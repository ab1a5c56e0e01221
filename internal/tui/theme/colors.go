package theme

// FurryFriends palette, matching the site's stylesheet variables
const (
	ColorBrightPurple = "#9B5DE5" // --bright-purple, accents and drag-over border
	ColorHeliotrope   = "#C77DFF" // --heliotrope, borders at rest
	ColorLavender     = "#E0C3FC" // --lavender, drag-over fill
	ColorWhite        = "#FFFFFF"
	ColorMuted        = "#808080"
	ColorDim          = "#5A5A5A"
	ColorBackdrop     = "#1A1A1A"

	// Notice colors (ANSI standard)
	ColorSuccess = "#51CF66"
	ColorWarning = "#FFD43B"
	ColorError   = "#FF6B6B"
	ColorInfo    = "#74C0FC"
)

// Notice kinds, in the same order as messaging.MessageType
const (
	noticeInfo = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// GetMessageColor returns the color for a given message type
func GetMessageColor(messageType int) string {
	switch messageType {
	case noticeError:
		return ColorError
	case noticeSuccess:
		return ColorSuccess
	case noticeWarning:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// GetMessageIcon returns the icon for a given message type
func GetMessageIcon(messageType int) string {
	switch messageType {
	case noticeError:
		return "❌"
	case noticeSuccess:
		return "✅"
	case noticeWarning:
		return "⚠️"
	default:
		return "🐾"
	}
}
