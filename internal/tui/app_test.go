package tui

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
	img "github.com/HaiFongPan/furryfriends-cli/internal/tui/image"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
)

// MockClient 模拟服务端 API
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CheckAuth(ctx context.Context) (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) Login(ctx context.Context, fields url.Values) (*api.FormOutcome, error) {
	args := m.Called(fields)
	outcome, _ := args.Get(0).(*api.FormOutcome)
	return outcome, args.Error(1)
}

func (m *MockClient) Register(ctx context.Context, fields url.Values) (*api.FormOutcome, error) {
	args := m.Called(fields)
	outcome, _ := args.Get(0).(*api.FormOutcome)
	return outcome, args.Error(1)
}

func (m *MockClient) Upload(ctx context.Context, req api.UploadRequest) (*api.FormOutcome, error) {
	args := m.Called(req.Path, req.Caption)
	outcome, _ := args.Get(0).(*api.FormOutcome)
	return outcome, args.Error(1)
}

func (m *MockClient) Logout(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *MockClient) Gallery(ctx context.Context) (*api.Page, error) {
	args := m.Called()
	page, _ := args.Get(0).(*api.Page)
	return page, args.Error(1)
}

func (m *MockClient) MyImages(ctx context.Context) (*api.Page, error) {
	args := m.Called()
	page, _ := args.Get(0).(*api.Page)
	return page, args.Error(1)
}

// fakePreviewer 返回固定的渲染结果
type fakePreviewer struct {
	sources []string
	err     error
}

func (f *fakePreviewer) Preview(ctx context.Context, source string, cols, rows int) (*img.ImagePreview, error) {
	f.sources = append(f.sources, source)
	if f.err != nil {
		return nil, f.err
	}
	return &img.ImagePreview{
		Source:       source,
		Kind:         img.SourceRemote,
		OriginalSize: img.ImageSize{Width: 80, Height: 80},
		Format:       img.FormatPNG,
		RenderedData: "[image]",
		RenderCols:   10,
		RenderRows:   5,
	}, nil
}

func (f *fakePreviewer) Protocol() img.GraphicsProtocol {
	return img.ProtocolANSI
}

var testItems = []api.GalleryItem{
	{ID: "1", Caption: "Rex at the beach", OriginalURL: "http://pets.local/static/originals/rex.jpg", ThumbnailURL: "http://pets.local/static/thumbnails/rex.jpg"},
	{ID: "2", Caption: "", OriginalURL: "http://pets.local/static/originals/tom.png"},
	{ID: "3", Caption: "Nap time", ThumbnailURL: "http://pets.local/static/thumbnails/nap.gif"},
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.UI.PopupDuration = time.Millisecond
	cfg.UI.RedirectDelay = time.Millisecond
	cfg.Server.Timeout = 5
	return cfg
}

// newTestModel 创建测试用模型并执行其初始命令
func newTestModel(t *testing.T, client *MockClient, start string) (*Model, *fakePreviewer) {
	t.Helper()
	previewer := &fakePreviewer{}
	m := NewModel(testConfig(), client, previewer, Options{StartPath: start, Username: "alice"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	feed(t, m, m.pending)
	m.pending = nil
	return m, previewer
}

// feed 执行命令并把产生的消息送回模型，直到没有后续命令；忽略弹窗消失和动画消息
func feed(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "commands did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case messaging.DismissMsg, spinner.TickMsg, tea.QuitMsg, nil:
		default:
			_, follow := m.Update(msg)
			queue = append(queue, follow)
		}
	}
}

func press(t *testing.T, m *Model, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(msg)
	feed(t, m, cmd)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func popupText(m *Model) string {
	text, _, _ := m.popup.Message()
	return text
}

func writeImage(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestNewModelStartsOnHome(t *testing.T) {
	client := &MockClient{}
	m, _ := newTestModel(t, client, "")

	assert.Equal(t, api.PathHome, m.Session().Path())
	assert.False(t, m.page.loading)
	assert.Contains(t, m.View(), "Welcome to FurryFriends")
	client.AssertNotCalled(t, "Gallery")
}

func TestGalleryLinkLoadsPage(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems, Flashes: []string{"Welcome back!"}}, nil)
	m, _ := newTestModel(t, client, "/")

	press(t, m, keyRunes("2"))

	assert.Equal(t, api.PathGallery, m.Session().Path())
	assert.Len(t, m.page.items, 3)
	assert.Equal(t, "Welcome back!", popupText(m))
	view := m.View()
	assert.Contains(t, view, "Rex at the beach")
	assert.Contains(t, view, interaction.DefaultCaption)
}

func TestSameGalleryLinkMakesNoRequest(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil).Once()
	m, _ := newTestModel(t, client, "/gallery")
	session := m.Session()

	press(t, m, keyRunes("2"))

	assert.Equal(t, interaction.MsgAlreadyGallery, popupText(m))
	assert.Same(t, session, m.Session())
	client.AssertNumberOfCalls(t, "Gallery", 1)
}

func TestMyImagesRequiresLogin(t *testing.T) {
	client := &MockClient{}
	client.On("CheckAuth").Return(false, nil)
	m, _ := newTestModel(t, client, "/")

	press(t, m, keyRunes("3"))

	assert.Equal(t, interaction.MsgPleaseLoginFirst, popupText(m))
	assert.Equal(t, api.PathHome, m.Session().Path())
	assert.False(t, m.Session().Modals.IsOpen(interaction.ModalLogin))
	client.AssertNotCalled(t, "MyImages")
}

func TestMyImagesWhenSignedIn(t *testing.T) {
	client := &MockClient{}
	client.On("CheckAuth").Return(true, nil)
	client.On("MyImages").Return(&api.Page{Items: testItems[:1]}, nil)
	m, _ := newTestModel(t, client, "/")

	press(t, m, keyRunes("3"))

	assert.Equal(t, api.PathMyImages, m.Session().Path())
	assert.Len(t, m.page.items, 1)
}

func TestMyImagesBouncedToLogin(t *testing.T) {
	client := &MockClient{}
	client.On("MyImages").Return(nil, api.ErrNotAuthenticated)
	m, _ := newTestModel(t, client, "/images")

	assert.True(t, m.page.needAuth)
	assert.Equal(t, interaction.MsgPleaseLoginFirst, popupText(m))
}

func TestPageLoadFailureNotifies(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(nil, errors.New("connection refused"))
	m, _ := newTestModel(t, client, "/gallery")

	require.Error(t, m.page.err)
	assert.Equal(t, "Could not load gallery", popupText(m))
	assert.Contains(t, m.View(), "connection refused")
}

func TestStalePageLoadDiscarded(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, _ := newTestModel(t, client, "/gallery")

	m.Update(pageLoadedMsg{seq: m.pageSeq - 1, path: api.PathGallery, page: &api.Page{}})
	assert.Len(t, m.page.items, 3)
}

func TestLoginFlow(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{}, nil)
	client.On("Login", url.Values{"username": {"bob"}, "password": {"hunter2"}}).
		Return(&api.FormOutcome{Success: true, Redirect: "/"}, nil)
	m, _ := newTestModel(t, client, "/gallery?x=1")

	press(t, m, keyRunes("l"))
	session := m.Session()
	require.True(t, session.Modals.IsOpen(interaction.ModalLogin))
	assert.True(t, session.Modals.ScrollLocked())

	// 预填的用户名被替换
	m.login.setFocus(0)
	m.login.username.SetValue("")
	press(t, m, keyRunes("bob"))
	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	press(t, m, keyRunes("hunter2"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Login successful!", popupText(m))
	assert.NotSame(t, session, m.Session(), "redirect builds a new session")
	assert.Equal(t, api.PathHome, m.Session().Path())
	assert.False(t, m.Session().Modals.ScrollLocked())
	assert.Equal(t, "bob", m.LastUsername())
	client.AssertExpectations(t)
}

func TestLoginFailureKeepsDialog(t *testing.T) {
	client := &MockClient{}
	client.On("Login", mock.Anything).Return(&api.FormOutcome{Success: false, Message: "Invalid username or password"}, nil)
	m, _ := newTestModel(t, client, "/")

	press(t, m, keyRunes("l"))
	press(t, m, keyRunes("secret"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Invalid username or password", popupText(m))
	assert.True(t, m.Session().Modals.IsOpen(interaction.ModalLogin))
	assert.False(t, m.Session().Forms.InFlight(interaction.FormLogin))
}

func TestSwitchBetweenLoginAndRegister(t *testing.T) {
	m, _ := newTestModel(t, &MockClient{}, "/")
	modals := m.Session().Modals

	press(t, m, keyRunes("l"))
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, modals.IsOpen(interaction.ModalRegister))
	assert.False(t, modals.IsOpen(interaction.ModalLogin))

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, modals.IsOpen(interaction.ModalLogin))
	assert.False(t, modals.IsOpen(interaction.ModalRegister))

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, modals.Visible())
}

func TestBackdropClickClosesDialog(t *testing.T) {
	m, _ := newTestModel(t, &MockClient{}, "/")
	modals := m.Session().Modals

	press(t, m, keyRunes("l"))
	r := m.dialogRect(interaction.ModalLogin)

	// 点击对话框内部不关闭
	m.Update(click(r.x+r.w/2, r.y+r.h/2))
	assert.True(t, modals.IsOpen(interaction.ModalLogin))

	m.Update(click(0, 0))
	assert.False(t, modals.IsOpen(interaction.ModalLogin))
}

func TestCloseMarkClosesDialog(t *testing.T) {
	m, _ := newTestModel(t, &MockClient{}, "/")
	press(t, m, keyRunes("l"))
	r := m.dialogRect(interaction.ModalLogin)

	m.Update(click(r.x+r.w-4, r.y+2))
	assert.False(t, m.Session().Modals.IsOpen(interaction.ModalLogin))
}

func TestScrollLockedWhileDialogOpen(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, _ := newTestModel(t, client, "/gallery")
	wheel := tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}

	press(t, m, keyRunes("l"))
	m.Update(wheel)
	assert.Equal(t, 0, m.page.cursor)

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m.Update(wheel)
	assert.Equal(t, 1, m.page.cursor)
}

func TestLightboxOpenRenderAndDismiss(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, previewer := newTestModel(t, client, "/gallery")

	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	box := m.Session().Lightbox
	require.True(t, box.Visible())
	source, caption := box.Image()
	assert.Equal(t, testItems[1].OriginalURL, source)
	assert.Equal(t, interaction.DefaultCaption, caption)
	assert.Equal(t, []string{source}, previewer.sources)
	require.NotNil(t, m.lightbox.preview)
	assert.Contains(t, m.View(), "[image]")

	// 点击图片关闭，一次有效
	r := m.lightbox.imageRect(m.width)
	m.Update(click(r.x, r.y))
	assert.False(t, box.Visible())
	assert.Empty(t, m.lightbox.source)
	assert.False(t, box.ClickImage())
}

func TestLightboxBackdropClick(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, _ := newTestModel(t, client, "/gallery")

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Session().Lightbox.Visible())

	// 标题行不算背景
	m.Update(click(0, 0))
	assert.True(t, m.Session().Lightbox.Visible())

	m.Update(click(0, m.height-5))
	assert.False(t, m.Session().Lightbox.Visible())
}

func TestLightboxCopyURL(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, _ := newTestModel(t, client, "/gallery")

	var copied string
	m.copyToClipboard = func(s string) error {
		copied = s
		return nil
	}

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	press(t, m, keyRunes("c"))
	assert.Equal(t, testItems[0].OriginalURL, copied)
	assert.Equal(t, "Image URL copied", popupText(m))

	m.copyToClipboard = func(string) error { return errors.New("no clipboard") }
	press(t, m, keyRunes("c"))
	assert.Equal(t, "Could not copy image URL", popupText(m))
}

func TestLightboxRenderFailure(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, previewer := newTestModel(t, client, "/gallery")
	previewer.err = errors.New("boom")

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, m.lightbox.err)
	assert.Contains(t, m.View(), "Failed to render")
}

// openUpload 登录状态下打开上传对话框
func openUpload(t *testing.T, client *MockClient) *Model {
	t.Helper()
	client.On("CheckAuth").Return(true, nil)
	m, _ := newTestModel(t, client, "/")
	press(t, m, keyRunes("u"))
	require.True(t, m.Session().Modals.IsOpen(interaction.ModalUpload))
	return m
}

func TestUploadRequiresLogin(t *testing.T) {
	client := &MockClient{}
	client.On("CheckAuth").Return(false, nil)
	m, _ := newTestModel(t, client, "/")

	press(t, m, keyRunes("u"))
	assert.False(t, m.Session().Modals.IsOpen(interaction.ModalUpload))
	assert.Equal(t, interaction.MsgPleaseLoginFirst, popupText(m))
}

func TestUploadDropAndPost(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)
	path := writeImage(t, "my cat.png", 2*1024*1024)
	client.On("Upload", path, "cute").Return(&api.FormOutcome{Success: true, Redirect: "/images"}, nil)
	client.On("MyImages").Return(&api.Page{Items: testItems[:1]}, nil)

	// 拖入终端的文件以粘贴形式到达
	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("'" + path + "'"), Paste: true})
	upload := m.Session().Upload
	require.NotNil(t, upload.Selected())
	assert.Equal(t, "my cat.png", upload.Selected().Name)
	assert.True(t, upload.PreviewVisible())
	assert.Empty(t, popupText(m))

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	press(t, m, keyRunes("cute"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, interaction.MsgUploadSucceeded, popupText(m))
	assert.Equal(t, api.PathMyImages, m.Session().Path())
	assert.Empty(t, m.Session().Modals.Visible())
	assert.Len(t, m.page.items, 1)
	client.AssertExpectations(t)
}

func TestUploadTypedPathAndEnlarge(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)
	path := writeImage(t, "dog.png", 512)

	m.upload.path.SetValue(path)
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Session().Upload.PreviewVisible())

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	box := m.Session().Lightbox
	require.True(t, box.Visible())
	_, caption := box.Image()
	assert.Equal(t, "dog.png", caption)

	// 关闭灯箱后回到上传对话框
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	top, ok := m.Session().Modals.Top()
	require.True(t, ok)
	assert.Equal(t, interaction.ModalUpload, top)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Nil(t, m.Session().Upload.Selected())
	assert.Empty(t, m.upload.path.Value())
}

func TestUploadRejectsLargeFile(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)
	path := writeImage(t, "huge.png", 11*1024*1024)

	m.upload.path.SetValue(path)
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "File size cannot exceed 10MB", popupText(m))
	assert.Nil(t, m.Session().Upload.Selected())
	assert.Empty(t, m.upload.path.Value())
}

func TestUploadSubmitWithoutFile(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)

	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, interaction.MsgSelectImageFirst, popupText(m))
	assert.True(t, m.Session().Modals.IsOpen(interaction.ModalUpload))
	client.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadMissingPath(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)

	m.upload.path.SetValue(filepath.Join(t.TempDir(), "nope.png"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, interaction.MsgPreviewReadFailed, popupText(m))
	assert.Empty(t, m.upload.path.Value())
}

func TestDragHighlight(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)
	r := m.dialogRect(interaction.ModalUpload)
	dd := m.Session().DragDrop

	m.Update(tea.MouseMsg{X: r.x + 2, Y: r.y + 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.True(t, dd.Highlighted())

	m.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.False(t, dd.Highlighted())

	m.Update(tea.MouseMsg{X: r.x + 2, Y: r.y + 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: r.x + 2, Y: r.y + 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.False(t, dd.Highlighted())
}

func TestUploadProgressFromOldSessionIgnored(t *testing.T) {
	client := &MockClient{}
	m := openUpload(t, client)
	old := m.Session()

	feed(t, m, m.Navigate("/"))
	m.Update(uploadProgressMsg{session: old, sent: 5, total: 10, percent: 50})
	assert.Zero(t, m.uploadPct)
}

func TestLogout(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{}, nil)
	client.On("Logout").Return(nil)
	m, _ := newTestModel(t, client, "/gallery")

	press(t, m, keyRunes("o"))
	assert.Equal(t, interaction.MsgLoggedOut, popupText(m))
	assert.Equal(t, api.PathHome, m.Session().Path())
}

func TestNavLinkClick(t *testing.T) {
	client := &MockClient{}
	client.On("Gallery").Return(&api.Page{Items: testItems}, nil)
	m, _ := newTestModel(t, client, "/")

	for _, l := range m.navLinks() {
		if l.link == interaction.LinkGallery {
			_, cmd := m.Update(click(l.x0, navRow))
			feed(t, m, cmd)
		}
	}
	assert.Equal(t, api.PathGallery, m.Session().Path())

	// 第一次点击选中卡片，再次点击打开灯箱
	y := 3 + listTopRows + 2
	m.Update(click(5, y))
	assert.Equal(t, 1, m.page.cursor)
	_, cmd := m.Update(click(5, y))
	feed(t, m, cmd)
	assert.True(t, m.Session().Lightbox.Visible())
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, &MockClient{}, "/")

	press(t, m, keyRunes("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Help")

	// 帮助打开时页面按键无效
	press(t, m, keyRunes("l"))
	assert.False(t, m.Session().Modals.IsOpen(interaction.ModalLogin))

	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", normalizePath(""))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/images", normalizePath("http://pets.local/images/"))
	assert.Equal(t, "/gallery", normalizePath("/gallery?page=2"))
}
