package config

// Layout constants
const (
	// Page layout
	HeaderHeight       = 3
	PopupHeight        = 3
	HelpLineHeight     = 1
	DefaultWindowWidth = 80
	DefaultWindowRows  = 24

	// Gallery list
	CaptionTruncateLength = 48
	URLTruncateLength     = 60

	// Dialog dimensions
	DialogDefaultWidth   = 50
	DialogUploadWidth    = 64
	DialogDefaultPadding = 2
	DropZoneHeight       = 5

	// Lightbox sizing, in cells outside the image
	LightboxChromeCols = 8
	LightboxChromeRows = 8

	// Form inputs
	UsernameCharLimit = 64
	PasswordCharLimit = 128
	CaptionCharLimit  = 200
	PathCharLimit     = 4096
)
