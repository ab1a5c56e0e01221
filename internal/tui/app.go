package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
	tuiconfig "github.com/HaiFongPan/furryfriends-cli/internal/tui/config"
	img "github.com/HaiFongPan/furryfriends-cli/internal/tui/image"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/theme"
	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// Client is the server API the screen needs; *api.Client satisfies it
type Client interface {
	interaction.Backend
	Gallery(ctx context.Context) (*api.Page, error)
	MyImages(ctx context.Context) (*api.Page, error)
}

// Previewer renders images for the lightbox; *image.ImageManager satisfies it
type Previewer interface {
	Preview(ctx context.Context, source string, cols, rows int) (*img.ImagePreview, error)
	Protocol() img.GraphicsProtocol
}

// Options configures the initial screen
type Options struct {
	// StartPath is the first page shown, "/" when empty
	StartPath string
	// Username pre-fills the login form
	Username string
}

type uploadProgressMsg struct {
	session *interaction.Session
	sent    int64
	total   int64
	percent float64
}

// navLink is a header entry and the cells it covers on the nav row
type navLink struct {
	link  interaction.Link
	label string
	x0    int
	x1    int
}

// Model is the FurryFriends screen. It presents notices and navigation for the
// interaction Session of the current page and routes input to it.
type Model struct {
	cfg     *config.Config
	client  Client
	images  Previewer
	session *interaction.Session
	popup   *messaging.Popup

	page    pageState
	pageSeq int

	login    *credentialsForm
	register *credentialsForm
	upload   *uploadForm
	lightbox lightboxView
	username string

	uploadName string
	uploadPct  float64

	keys          KeyMap
	dialogKeys    DialogKeyMap
	help          help.Model
	spinner       spinner.Model
	progress      progress.Model
	showHelp      bool
	clearGraphics bool
	width         int
	height        int
	pending       tea.Cmd

	program         *tea.Program
	copyToClipboard func(string) error
}

// NewModel creates the screen and enters the start page
func NewModel(cfg *config.Config, client Client, images Previewer, opts Options) *Model {
	if cfg == nil {
		cfg = config.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorHeliotrope))

	h := help.New()
	h.ShowAll = false

	m := &Model{
		cfg:             cfg,
		client:          client,
		images:          images,
		popup:           messaging.NewPopup(cfg.UI.PopupDuration),
		username:        opts.Username,
		keys:            DefaultKeyMap(),
		dialogKeys:      DefaultDialogKeyMap(),
		help:            h,
		spinner:         s,
		progress:        progress.New(progress.WithGradient(theme.ColorHeliotrope, theme.ColorBrightPurple), progress.WithWidth(30)),
		width:           tuiconfig.DefaultWindowWidth,
		height:          tuiconfig.DefaultWindowRows,
		copyToClipboard: clipboard.WriteAll,
	}
	m.pending = m.enter(opts.StartPath)
	return m
}

// SetProgram sets the tea.Program reference so upload progress can be sent from the posting goroutine
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// Session returns the interaction state of the current page
func (m *Model) Session() *interaction.Session {
	return m.session
}

// LastUsername returns the username most recently submitted on the login form
func (m *Model) LastUsername() string {
	return m.username
}

// Notify shows text in the popup
func (m *Model) Notify(text string, kind messaging.MessageType) tea.Cmd {
	logrus.WithField("kind", kind).Debugf("notify: %s", text)
	return m.popup.Show(text, kind)
}

// Navigate replaces the current page and its Session
func (m *Model) Navigate(path string) tea.Cmd {
	return m.enter(path)
}

// ResetFileInput clears the upload file field
func (m *Model) ResetFileInput() {
	if m.upload != nil {
		m.upload.ResetPath()
	}
}

// enter builds a fresh Session for path and starts loading the page
func (m *Model) enter(path string) tea.Cmd {
	path = normalizePath(path)

	var session *interaction.Session
	opts := interaction.OptionsFromConfig(m.cfg, path)
	opts.OnProgress = func(sent, total int64, percent float64) {
		if m.program != nil {
			m.program.Send(uploadProgressMsg{session: session, sent: sent, total: total, percent: percent})
		}
	}
	var backend interaction.Backend
	if m.client != nil {
		backend = m.client
	}
	session = interaction.NewSession(m, backend, opts)

	if m.lightbox.preview != nil {
		m.clearGraphics = true
	}
	m.session = session
	m.login = newCredentialsForm(interaction.FormLogin, m.username)
	m.register = newCredentialsForm(interaction.FormRegister, "")
	m.upload = newUploadForm()
	m.lightbox.reset()
	m.uploadName = ""
	m.uploadPct = 0

	m.pageSeq++
	m.page = pageState{path: path, loading: isListing(path) && m.client != nil}

	switch path {
	case api.PathLogin:
		session.Modals.Open(interaction.ModalLogin)
	case api.PathRegister:
		session.Modals.Open(interaction.ModalRegister)
	}

	logrus.WithField("path", path).Info("page entered")
	return fetchPage(m.client, m.pageSeq, path, m.cfg.RequestTimeout())
}

// Init implements the bubbletea.Model interface
func (m *Model) Init() tea.Cmd {
	pending := m.pending
	m.pending = nil
	return tea.Batch(pending, m.spinner.Tick)
}

// Update implements the bubbletea.Model interface
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.session.Update(msg); handled {
		return m, tea.Batch(cmd, m.syncLightbox())
	}
	if m.popup.Update(msg) {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, tea.Batch(cmd, m.syncLightbox())

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, tea.Batch(cmd, m.syncLightbox())

	case pageLoadedMsg:
		if msg.seq != m.pageSeq {
			logrus.Debugf("discarding stale page load for %s", msg.path)
			return m, nil
		}
		m.page.apply(msg)
		switch {
		case m.page.needAuth:
			return m, m.Notify(interaction.MsgPleaseLoginFirst, messaging.MessageWarning)
		case m.page.err != nil:
			logrus.WithError(m.page.err).WithField("path", msg.path).Error("page load failed")
			return m, m.Notify("Could not load "+strings.ToLower(pageTitle(msg.path)), messaging.MessageError)
		case msg.page != nil && len(msg.page.Flashes) > 0:
			return m, m.Notify(msg.page.Flashes[len(msg.page.Flashes)-1], messaging.MessageInfo)
		}
		return m, nil

	case lightboxLoadedMsg:
		m.lightbox.apply(msg)
		return m, nil

	case uploadProgressMsg:
		if msg.session != m.session || !m.session.Upload.Posting() {
			return m, nil
		}
		m.uploadPct = msg.percent
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// syncLightbox starts rendering a newly opened lightbox image and forgets a closed one
func (m *Model) syncLightbox() tea.Cmd {
	box := m.session.Lightbox
	if !box.Visible() {
		if m.lightbox.source != "" {
			m.clearGraphics = m.lightbox.preview != nil
			m.lightbox.reset()
		}
		return nil
	}
	source, _ := box.Image()
	if source == m.lightbox.source {
		return nil
	}
	return m.lightbox.load(m.images, source, m.width, m.overlayHeight(), m.cfg.RequestTimeout())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.dialogKeys.ForceClose) {
		return tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.dialogKeys.Close) {
			m.showHelp = false
		}
		return nil
	}

	if top, ok := m.session.Modals.Top(); ok {
		switch top {
		case interaction.ModalLightbox:
			return m.handleLightboxKey(msg)
		case interaction.ModalLogin:
			return m.handleCredentialsKey(m.login, msg)
		case interaction.ModalRegister:
			return m.handleCredentialsKey(m.register, msg)
		case interaction.ModalUpload:
			return m.handleUploadKey(msg)
		}
	}
	return m.handlePageKey(msg)
}

func (m *Model) handlePageKey(msg tea.KeyMsg) tea.Cmd {
	nav := m.session.Nav
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.Open):
		if item, ok := m.page.selected(); ok {
			m.session.Lightbox.OpenFromGallery(item)
		}
	case key.Matches(msg, m.keys.Home):
		return nav.Click(interaction.LinkHome)
	case key.Matches(msg, m.keys.Gallery):
		return nav.Click(interaction.LinkGallery)
	case key.Matches(msg, m.keys.MyImages):
		return nav.Click(interaction.LinkMyImages)
	case key.Matches(msg, m.keys.Upload):
		return nav.Click(interaction.LinkUpload)
	case key.Matches(msg, m.keys.Login):
		return nav.Click(interaction.LinkLogin)
	case key.Matches(msg, m.keys.Logout):
		return nav.Click(interaction.LinkLogout)
	case key.Matches(msg, m.keys.Refresh):
		return m.enter(m.session.Path())
	}
	return nil
}

// scroll moves the page cursor unless a dialog has locked the page
func (m *Model) scroll(delta int) {
	if m.session.Modals.ScrollLocked() {
		return
	}
	m.page.move(delta, itemsPerScreen(m.contentHeight()-listTopRows))
}

func (m *Model) handleLightboxKey(msg tea.KeyMsg) tea.Cmd {
	box := m.session.Lightbox
	switch {
	case key.Matches(msg, m.keys.Open):
		box.ClickImage()
	case key.Matches(msg, m.dialogKeys.Close):
		box.Close()
	case key.Matches(msg, m.dialogKeys.CopyURL):
		return m.copyLightboxURL()
	}
	return nil
}

func (m *Model) copyLightboxURL() tea.Cmd {
	url, _ := m.session.Lightbox.Image()
	if url == "" || utils.IsDataURL(url) {
		return nil
	}
	if err := m.copyToClipboard(url); err != nil {
		logrus.WithError(err).Warn("clipboard write failed")
		return m.Notify("Could not copy image URL", messaging.MessageError)
	}
	return m.Notify("Image URL copied", messaging.MessageSuccess)
}

func (m *Model) handleCredentialsKey(f *credentialsForm, msg tea.KeyMsg) tea.Cmd {
	modals := m.session.Modals
	switch {
	case key.Matches(msg, m.dialogKeys.Close):
		modals.CloseButton(f.form.Modal())
		return nil
	case key.Matches(msg, m.dialogKeys.Switch):
		if f.form == interaction.FormLogin {
			modals.SwitchToRegister()
		} else {
			modals.SwitchToLogin()
		}
		return nil
	case key.Matches(msg, m.dialogKeys.NextField):
		f.next()
		return nil
	case key.Matches(msg, m.dialogKeys.PrevField):
		f.prev()
		return nil
	case key.Matches(msg, m.dialogKeys.Submit):
		if f.form == interaction.FormLogin {
			m.username = f.Username()
		}
		return m.session.Forms.Submit(f.form, f.Values())
	}
	return f.Update(msg)
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	s := m.session
	form := m.upload

	// a file dragged onto the terminal arrives as a paste
	if msg.Paste && form.focus == 0 {
		text := string(msg.Runes)
		if paths := interaction.ParseDroppedPaths(text); len(paths) > 0 {
			form.path.SetValue(paths[0])
		}
		_, cmd := s.DragDrop.DropText(text)
		return cmd
	}

	switch {
	case key.Matches(msg, m.dialogKeys.Close):
		s.Modals.CloseButton(interaction.ModalUpload)
		return nil
	case key.Matches(msg, m.dialogKeys.Enlarge):
		s.Lightbox.OpenFromPreview(s.Upload.Selected())
		return nil
	case key.Matches(msg, m.dialogKeys.Remove):
		s.Upload.RemoveSelection()
		return nil
	case key.Matches(msg, m.dialogKeys.NextField):
		form.next()
		return nil
	case key.Matches(msg, m.dialogKeys.PrevField):
		form.prev()
		return nil
	case key.Matches(msg, m.dialogKeys.Submit):
		if form.focus == 0 {
			if path := m.typedPath(); path != "" {
				return m.selectPath(path)
			}
		}
		return m.submitUpload()
	}
	return form.Update(msg)
}

// typedPath returns the path in the file field when it names something other than the selection
func (m *Model) typedPath() string {
	paths := interaction.ParseDroppedPaths(m.upload.path.Value())
	if len(paths) == 0 {
		return ""
	}
	if sel := m.session.Upload.Selected(); sel != nil && sel.Path == paths[0] {
		return ""
	}
	return paths[0]
}

func (m *Model) selectPath(path string) tea.Cmd {
	c, err := interaction.CandidateFromPath(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Debug("cannot select file")
		m.upload.ResetPath()
		return m.Notify(interaction.MsgPreviewReadFailed, messaging.MessageError)
	}
	cmd, err := m.session.Upload.SelectFile(c)
	if err != nil {
		logrus.WithError(err).WithField("file", c.Name).Debug("selection rejected")
	}
	return cmd
}

func (m *Model) submitUpload() tea.Cmd {
	pipeline := m.session.Upload
	if pipeline.Posting() {
		return nil
	}
	name := ""
	if sel := pipeline.Selected(); sel != nil {
		name = sel.Name
	}
	cmd, ok := pipeline.Submit(m.upload.caption.Value())
	if ok {
		m.uploadName = name
		m.uploadPct = 0
	}
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	s := m.session
	top, open := s.Modals.Top()

	switch msg.Action {
	case tea.MouseActionMotion:
		if open && top == interaction.ModalUpload {
			if m.dialogRect(top).contains(msg.X, msg.Y) {
				s.DragDrop.Handle(interaction.DragOver, nil)
			} else if s.DragDrop.Highlighted() {
				s.DragDrop.Handle(interaction.DragLeave, nil)
			}
		}
		return nil
	case tea.MouseActionRelease:
		if open && top == interaction.ModalUpload && s.DragDrop.Highlighted() {
			s.DragDrop.Handle(interaction.Drop, nil)
		}
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll(-1)
		return nil
	case tea.MouseButtonWheelDown:
		m.scroll(1)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	if !open {
		return m.clickPage(msg.X, msg.Y)
	}

	if top == interaction.ModalLightbox {
		switch {
		case m.lightbox.imageRect(m.width).contains(msg.X, msg.Y):
			s.Lightbox.ClickImage()
		case msg.Y >= lightboxImageRow:
			s.Modals.CloseOnOutsideClick(interaction.ModalLightbox, true)
		}
		return nil
	}

	r := m.dialogRect(top)
	if !r.contains(msg.X, msg.Y) {
		s.Modals.CloseOnOutsideClick(top, true)
		return nil
	}
	if r.onCloseMark(msg.X, msg.Y) {
		s.Modals.CloseButton(top)
	}
	return nil
}

// clickPage handles a click on the page without dialogs: nav links and gallery cards
func (m *Model) clickPage(x, y int) tea.Cmd {
	if y == navRow {
		for _, l := range m.navLinks() {
			if x >= l.x0 && x < l.x1 {
				return m.session.Nav.Click(l.link)
			}
		}
		return nil
	}

	// the listing starts with a section header and shows two rows per card
	row := y - tuiconfig.HeaderHeight - listTopRows
	if !isListing(m.page.path) || row < 0 {
		return nil
	}
	index := m.page.offset + row/2
	if index >= len(m.page.items) || index >= m.page.offset+itemsPerScreen(m.contentHeight()-listTopRows) {
		return nil
	}
	if index == m.page.cursor {
		m.session.Lightbox.OpenFromGallery(m.page.items[index])
		return nil
	}
	m.page.cursor = index
	return nil
}

// navRow is the screen row of the header links
const navRow = 1

func (m *Model) navLinks() []navLink {
	links := []navLink{
		{link: interaction.LinkHome, label: "Home"},
		{link: interaction.LinkGallery, label: "Gallery"},
		{link: interaction.LinkMyImages, label: "My Images"},
		{link: interaction.LinkUpload, label: "Upload"},
		{link: interaction.LinkLogin, label: "Login"},
		{link: interaction.LinkLogout, label: "Logout"},
	}
	x := 1
	for i := range links {
		w := lipgloss.Width(theme.CreateNavLinkStyle(false).Render(links[i].label))
		links[i].x0 = x
		links[i].x1 = x + w
		x += w
	}
	return links
}

func (m *Model) isCurrent(link interaction.Link) bool {
	path := m.page.path
	switch link {
	case interaction.LinkHome:
		return interaction.IsHomePage(path)
	case interaction.LinkGallery, interaction.LinkMyImages:
		return link.Path() == path
	}
	return false
}

// rect is a block of screen cells
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// onCloseMark reports whether x,y hit the close control on a dialog's title row
func (r rect) onCloseMark(x, y int) bool {
	return y == r.y+2 && x >= r.x+r.w-6 && x < r.x+r.w-2
}

// dialogRect returns where the dialog for id is drawn
func (m *Model) dialogRect(id interaction.ModalID) rect {
	view := m.dialogView(id)
	w, h := lipgloss.Width(view), lipgloss.Height(view)
	return rect{
		x: max(0, m.width-w) / 2,
		y: max(0, m.overlayHeight()-h) / 2,
		w: w,
		h: h,
	}
}

func (m *Model) dialogView(id interaction.ModalID) string {
	switch id {
	case interaction.ModalLogin:
		return m.login.View(m.session.Forms.InFlight(interaction.FormLogin))
	case interaction.ModalRegister:
		return m.register.View(m.session.Forms.InFlight(interaction.FormRegister))
	case interaction.ModalUpload:
		return m.upload.View(m.session.Upload, m.session.DragDrop.Highlighted(), m.progressLine())
	}
	return ""
}

func (m *Model) progressLine() string {
	if !m.session.Upload.Posting() {
		return ""
	}
	text := theme.FormatProgressMessage("Uploading", m.uploadName, m.uploadPct)
	return m.progress.ViewAs(m.uploadPct/100) + " " + theme.CreateProgressTextStyle().Render(text)
}

// overlayHeight is the screen height left once the popup row is reserved
func (m *Model) overlayHeight() int {
	return max(1, m.height-tuiconfig.PopupHeight)
}

func (m *Model) contentHeight() int {
	return max(1, m.height-tuiconfig.HeaderHeight-tuiconfig.PopupHeight-tuiconfig.HelpLineHeight)
}

func (m *Model) protocol() img.GraphicsProtocol {
	if m.images == nil {
		return img.ProtocolNone
	}
	return m.images.Protocol()
}

// View implements the bubbletea.Model interface
func (m *Model) View() string {
	prefix := ""
	if m.clearGraphics {
		prefix = img.ClearGraphics(m.protocol())
		m.clearGraphics = false
	}

	var body string
	switch top, open := m.session.Modals.Top(); {
	case open && top == interaction.ModalLightbox:
		_, caption := m.session.Lightbox.Image()
		body = lipgloss.NewStyle().Height(m.overlayHeight()).MaxHeight(m.overlayHeight()).
			Render(m.lightbox.View(caption, m.width, m.spinner.View()))
	case open:
		body = m.renderFloatingDialog(m.dialogView(top))
	case m.showHelp:
		body = m.renderFloatingDialog(m.renderHelpDialog())
	default:
		return prefix + m.renderPage()
	}
	return prefix + body + "\n" + m.popupLine()
}

func (m *Model) popupLine() string {
	return lipgloss.NewStyle().Height(tuiconfig.PopupHeight).Render(m.popup.View())
}

func (m *Model) renderPage() string {
	var nav strings.Builder
	nav.WriteString(" ")
	for _, l := range m.navLinks() {
		nav.WriteString(theme.CreateNavLinkStyle(m.isCurrent(l.link)).Render(l.label))
	}
	header := theme.CreateHeaderStyle().Render("🐾 FurryFriends") + "\n" +
		nav.String() + "\n" +
		lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorDim)).Render(strings.Repeat("─", max(1, m.width)))

	height := m.contentHeight()
	content := lipgloss.NewStyle().Height(height).MaxHeight(height).
		Render(m.page.View(m.width, height, m.spinner.View()))

	footer := theme.CreateFooterStyle().Render(m.help.ShortHelpView(m.keys.ShortHelp()))
	return header + "\n" + content + "\n" + m.popupLine() + "\n" + footer
}

// renderFloatingDialog centers a dialog over the screen
func (m *Model) renderFloatingDialog(dialog string) string {
	return lipgloss.Place(
		m.width,
		m.overlayHeight(),
		lipgloss.Center,
		lipgloss.Center,
		dialog,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.ColorBackdrop)),
	)
}

// renderHelpDialog renders the key help using bubbles help
func (m *Model) renderHelpDialog() string {
	title := theme.CreateModalTitleStyle().Render("🐾 FurryFriends - Help")
	helpContent := m.help.FullHelpView(m.keys.FullHelp())
	instructions := theme.CreateHintStyle().MarginTop(1).Render("Press ? or esc to close help")

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpContent, instructions)
	return theme.CreateModalStyle(min(tuiconfig.DialogUploadWidth, max(20, m.width-10))).Render(content)
}

// String describes the model for debug logs
func (m *Model) String() string {
	top, _ := m.session.Modals.Top()
	return fmt.Sprintf("page=%s modals=%v top=%s", m.page.path, m.session.Modals.Visible(), top)
}
