package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	tuiconfig "github.com/HaiFongPan/furryfriends-cli/internal/tui/config"
	img "github.com/HaiFongPan/furryfriends-cli/internal/tui/image"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/theme"
	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// lightboxImageRow is the first screen row of the image; caption, status and hint sit above it
const lightboxImageRow = 4

// lightboxView renders whatever image the lightbox currently holds
type lightboxView struct {
	source  string
	loading bool
	preview *img.ImagePreview
	err     error
}

type lightboxLoadedMsg struct {
	source  string
	preview *img.ImagePreview
	err     error
}

// load fetches and renders source to fit a width×height screen
func (v *lightboxView) load(images Previewer, source string, width, height int, timeout time.Duration) tea.Cmd {
	v.source = source
	v.loading = true
	v.preview = nil
	v.err = nil
	if images == nil {
		v.loading = false
		return nil
	}

	cols := max(1, width-tuiconfig.LightboxChromeCols)
	rows := max(1, height-tuiconfig.LightboxChromeRows)
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		preview, err := images.Preview(ctx, source, cols, rows)
		return lightboxLoadedMsg{source: source, preview: preview, err: err}
	}
}

// apply stores a finished render when it is still for the displayed image
func (v *lightboxView) apply(msg lightboxLoadedMsg) bool {
	if msg.source != v.source {
		return false
	}
	v.loading = false
	v.preview = msg.preview
	v.err = msg.err
	if msg.err != nil {
		logrus.WithError(msg.err).Warn("lightbox image failed to load")
	}
	return true
}

func (v *lightboxView) reset() {
	*v = lightboxView{}
}

// imageRect returns the screen cells the image covers on a screen width cells wide
func (v *lightboxView) imageRect(width int) rect {
	if v.preview == nil {
		return rect{}
	}
	return rect{x: imageColumn(width, v.preview.RenderCols), y: lightboxImageRow, w: v.preview.RenderCols, h: v.preview.RenderRows}
}

func imageColumn(width, cols int) int {
	return max(0, (width-cols)/2)
}

func (v *lightboxView) View(caption string, width int, spin string) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	// one row each for caption, status and hint keeps the image at lightboxImageRow
	nameLine := theme.CreateCaptionStyle().Width(width).Render("🖼️ " + truncate(caption, max(1, width-4)))

	var status string
	switch {
	case v.loading:
		status = fmt.Sprintf("%s Loading image…", spin)
	case v.err != nil:
		status = theme.CreateErrorStyle().Render(truncate(fmt.Sprintf("Failed to render: %v", v.err), max(1, width)))
	case v.preview != nil:
		status = v.preview.Describe()
	}
	statusLine := center.Render(status)

	hint := "click image or press enter to close • c copy URL"
	if utils.IsDataURL(v.source) {
		hint = "click image or press enter to close"
	}
	hintLine := center.Foreground(lipgloss.Color(theme.ColorMuted)).Render(hint)

	lines := []string{nameLine, statusLine, hintLine, ""}
	if v.preview != nil {
		pad := strings.Repeat(" ", imageColumn(width, v.preview.RenderCols))
		for _, line := range strings.Split(v.preview.RenderedData, "\n") {
			lines = append(lines, pad+line)
		}
	} else if !v.loading && v.err == nil && !utils.IsDataURL(v.source) {
		lines = append(lines, center.Render(theme.FormatClickableURL(truncate(v.source, tuiconfig.URLTruncateLength), v.source)))
	}
	return strings.Join(lines, "\n")
}
