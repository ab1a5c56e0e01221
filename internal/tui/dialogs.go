package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
	tuiconfig "github.com/HaiFongPan/furryfriends-cli/internal/tui/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/theme"
)

// credentialsForm backs the login and register dialogs
type credentialsForm struct {
	form     interaction.Form
	username textinput.Model
	password textinput.Model
	focus    int
}

func newCredentialsForm(form interaction.Form, username string) *credentialsForm {
	u := textinput.New()
	u.Placeholder = "username"
	u.CharLimit = tuiconfig.UsernameCharLimit
	u.SetValue(username)

	p := textinput.New()
	p.Placeholder = "password"
	p.CharLimit = tuiconfig.PasswordCharLimit
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	f := &credentialsForm{form: form, username: u, password: p}
	f.focusFirstEmpty()
	return f
}

// focusFirstEmpty puts the cursor where typing is most likely to start
func (f *credentialsForm) focusFirstEmpty() {
	if f.username.Value() != "" {
		f.setFocus(1)
		return
	}
	f.setFocus(0)
}

func (f *credentialsForm) setFocus(i int) {
	f.focus = (i + 2) % 2
	if f.focus == 0 {
		f.username.Focus()
		f.password.Blur()
	} else {
		f.password.Focus()
		f.username.Blur()
	}
}

func (f *credentialsForm) next() { f.setFocus(f.focus + 1) }
func (f *credentialsForm) prev() { f.setFocus(f.focus - 1) }

// Values returns the fields as the server's form expects them
func (f *credentialsForm) Values() url.Values {
	return url.Values{
		"username": {strings.TrimSpace(f.username.Value())},
		"password": {f.password.Value()},
	}
}

func (f *credentialsForm) Username() string {
	return strings.TrimSpace(f.username.Value())
}

func (f *credentialsForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f *credentialsForm) View(inFlight bool) string {
	var b strings.Builder

	title := "🔑 Login"
	other := "ctrl+r to register"
	if f.form == interaction.FormRegister {
		title = "🐾 Register"
		other = "ctrl+r to login"
	}
	b.WriteString(dialogTitle(title, innerWidth(tuiconfig.DialogDefaultWidth)))
	b.WriteString("\n")

	b.WriteString(theme.CreateFieldLabelStyle(f.focus == 0).Render("Username"))
	b.WriteString(f.username.View())
	b.WriteString("\n\n")
	b.WriteString(theme.CreateFieldLabelStyle(f.focus == 1).Render("Password"))
	b.WriteString(f.password.View())
	b.WriteString("\n\n")

	button := theme.CreateDialogButtonStyle(!inFlight).Render(f.form.String())
	if inFlight {
		button = theme.CreateDialogButtonStyle(false).Render("Sending…")
	}
	b.WriteString(lipgloss.PlaceHorizontal(innerWidth(tuiconfig.DialogDefaultWidth), lipgloss.Center, button))
	b.WriteString("\n")
	b.WriteString(theme.CreateHintStyle().Render("enter submit • tab next field • " + other + " • esc close"))

	return theme.CreateModalStyle(tuiconfig.DialogDefaultWidth).Render(b.String())
}

// uploadForm backs the upload dialog: a path field standing in for the file input, and the caption
type uploadForm struct {
	path    textinput.Model
	caption textinput.Model
	focus   int
}

func newUploadForm() *uploadForm {
	p := textinput.New()
	p.Placeholder = "drop a file here or type its path"
	p.CharLimit = tuiconfig.PathCharLimit

	c := textinput.New()
	c.Placeholder = "Say something about your pet (optional)"
	c.CharLimit = tuiconfig.CaptionCharLimit

	f := &uploadForm{path: p, caption: c}
	f.setFocus(0)
	return f
}

func (f *uploadForm) setFocus(i int) {
	f.focus = (i + 2) % 2
	if f.focus == 0 {
		f.path.Focus()
		f.caption.Blur()
	} else {
		f.caption.Focus()
		f.path.Blur()
	}
}

func (f *uploadForm) next() { f.setFocus(f.focus + 1) }
func (f *uploadForm) prev() { f.setFocus(f.focus - 1) }

// ResetPath empties the file field so the same file can be picked again
func (f *uploadForm) ResetPath() {
	f.path.Reset()
}

func (f *uploadForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.path, cmd = f.path.Update(msg)
	} else {
		f.caption, cmd = f.caption.Update(msg)
	}
	return cmd
}

func (f *uploadForm) View(upload *interaction.UploadPipeline, highlighted bool, progressLine string) string {
	var b strings.Builder
	inner := innerWidth(tuiconfig.DialogUploadWidth)

	b.WriteString(dialogTitle("📤 Upload a Pet Photo", inner))
	b.WriteString("\n")

	zone := "Drag & drop an image here\nJPG, PNG, GIF, BMP, WebP • up to 10MB"
	if selected := upload.Selected(); selected != nil {
		state := "reading…"
		if upload.PreviewVisible() {
			state = "preview ready • ctrl+p to enlarge"
		}
		zone = fmt.Sprintf("🖼️ %s\n%s • %s\n%s • ctrl+x to remove",
			selected.Name, humanize.IBytes(uint64(selected.Size)), selected.MediaType, state)
	}
	// the zone's border sits inside the dialog padding
	b.WriteString(theme.CreateDropZoneStyle(inner-2, highlighted).Render(zone))
	b.WriteString("\n\n")

	b.WriteString(theme.CreateFieldLabelStyle(f.focus == 0).Render("File"))
	b.WriteString(f.path.View())
	b.WriteString("\n\n")
	b.WriteString(theme.CreateFieldLabelStyle(f.focus == 1).Render("Caption"))
	b.WriteString(f.caption.View())
	b.WriteString("\n\n")

	if progressLine != "" {
		b.WriteString(progressLine)
		b.WriteString("\n")
	} else {
		button := theme.CreateDialogButtonStyle(upload.Ready()).Render("Upload")
		b.WriteString(lipgloss.PlaceHorizontal(inner, lipgloss.Center, button))
		b.WriteString("\n")
	}
	b.WriteString(theme.CreateHintStyle().Render("enter on File selects • enter on Caption uploads • esc close"))

	return theme.CreateModalStyle(tuiconfig.DialogUploadWidth).Render(b.String())
}

// closeMark is the dialog close control, drawn at the right end of the title row
const closeMark = "✕"

// dialogTitle lays out the title with the close control right-aligned in inner cells
func dialogTitle(text string, inner int) string {
	title := theme.CreateModalTitleStyle().UnsetMarginBottom().Render(text)
	gap := max(1, inner-lipgloss.Width(title)-lipgloss.Width(closeMark))
	return title + strings.Repeat(" ", gap) + theme.CreateHintStyle().Render(closeMark) + "\n"
}

func innerWidth(dialogWidth int) int {
	return dialogWidth - 2*tuiconfig.DialogDefaultPadding
}
