package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
	tuiconfig "github.com/HaiFongPan/furryfriends-cli/internal/tui/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/theme"
)

// pageState is the listing underneath the dialogs
type pageState struct {
	path     string
	items    []api.GalleryItem
	cursor   int
	offset   int
	loading  bool
	err      error
	needAuth bool
}

type pageLoadedMsg struct {
	seq  int
	path string
	page *api.Page
	err  error
}

// normalizePath reduces a redirect target to the page path it names
func normalizePath(target string) string {
	if u, err := url.Parse(target); err == nil && u.Path != "" {
		target = u.Path
	}
	if target == "" {
		return api.PathHome
	}
	if target != "/" {
		target = strings.TrimRight(target, "/")
	}
	return target
}

func isListing(path string) bool {
	return path == api.PathGallery || path == api.PathMyImages
}

func pageTitle(path string) string {
	switch path {
	case api.PathGallery:
		return "Gallery"
	case api.PathMyImages:
		return "My Images"
	default:
		return "Home"
	}
}

// fetchPage loads the listing at path
func fetchPage(client Client, seq int, path string, timeout time.Duration) tea.Cmd {
	if client == nil || !isListing(path) {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var (
			page *api.Page
			err  error
		)
		if path == api.PathMyImages {
			page, err = client.MyImages(ctx)
		} else {
			page, err = client.Gallery(ctx)
		}
		return pageLoadedMsg{seq: seq, path: path, page: page, err: err}
	}
}

func (p *pageState) apply(msg pageLoadedMsg) {
	p.loading = false
	p.cursor = 0
	p.offset = 0
	p.err = nil
	p.needAuth = false
	p.items = nil

	if msg.err != nil {
		if errors.Is(msg.err, api.ErrNotAuthenticated) {
			p.needAuth = true
			return
		}
		p.err = msg.err
		return
	}
	if msg.page != nil {
		p.items = msg.page.Items
	}
}

// move shifts the cursor by delta and keeps it inside a window of height rows
func (p *pageState) move(delta, height int) {
	if len(p.items) == 0 {
		return
	}
	p.cursor = min(max(0, p.cursor+delta), len(p.items)-1)
	height = max(1, height)
	if p.cursor < p.offset {
		p.offset = p.cursor
	} else if p.cursor >= p.offset+height {
		p.offset = p.cursor - height + 1
	}
}

func (p *pageState) selected() (api.GalleryItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return api.GalleryItem{}, false
	}
	return p.items[p.cursor], true
}

// listTopRows is the section header and its margin above the first card
const listTopRows = 2

// itemsPerScreen is how many two-line cards fit in height rows
func itemsPerScreen(height int) int {
	return max(1, height/2)
}

func (p *pageState) View(width, height int, spin string) string {
	if p.path == api.PathHome || !isListing(p.path) {
		return renderHome(width)
	}

	switch {
	case p.loading:
		return theme.CreateLoadingStyle().Render(fmt.Sprintf("%s Loading %s...", spin, strings.ToLower(pageTitle(p.path))))
	case p.needAuth:
		return theme.CreateErrorStyle().Render(interaction.MsgPleaseLoginFirst + " • press l to login")
	case p.err != nil:
		return theme.CreateErrorStyle().Render(fmt.Sprintf("Error: %v", p.err))
	case len(p.items) == 0:
		empty := "No pets here yet"
		if p.path == api.PathMyImages {
			empty = "You have not uploaded any images yet • press u to upload"
		}
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.ColorMuted)).
			Width(width).
			Height(height).
			Align(lipgloss.Center).
			AlignVertical(lipgloss.Center).
			Render(empty)
	}

	var b strings.Builder
	b.WriteString(theme.CreateSectionHeaderStyle().Render(fmt.Sprintf("%s • %d images", pageTitle(p.path), len(p.items))))
	b.WriteString("\n")

	visible := itemsPerScreen(height - listTopRows)
	end := min(len(p.items), p.offset+visible)
	for i := p.offset; i < end; i++ {
		item := p.items[i]
		caption := strings.TrimSpace(item.Caption)
		if caption == "" {
			caption = interaction.DefaultCaption
		}
		marker := "  "
		if i == p.cursor {
			marker = "▸ "
		}
		b.WriteString(theme.CreateItemStyle(i == p.cursor).Render(marker + truncate(caption, tuiconfig.CaptionTruncateLength)))
		b.WriteString("\n")

		link := item.OriginalURL
		if link == "" {
			link = item.ThumbnailURL
		}
		b.WriteString("    " + theme.CreateSecondaryTextStyle().Render(truncate(link, tuiconfig.URLTruncateLength)))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderHome(width int) string {
	title := theme.CreateHeaderStyle().Render("Welcome to FurryFriends 🐶🐱")
	body := theme.CreateSecondaryTextStyle().Render(
		"Share photos of your pets and browse everyone else's.\n\n" +
			"2  browse the gallery\n" +
			"3  see your own uploads\n" +
			"u  upload a new photo\n" +
			"l  login or register",
	)
	return lipgloss.NewStyle().Width(width).Render(title + "\n" + body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
