package interaction

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/config"
	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// Options tunes a Session
type Options struct {
	// CurrentPath is the page the session belongs to
	CurrentPath string
	// RedirectDelay separates a successful login notice from the redirect
	RedirectDelay time.Duration
	// MaxUploadBytes is the largest selectable file
	MaxUploadBytes int64
	// RequestTimeout bounds auth checks and form posts
	RequestTimeout time.Duration
	// UploadTimeout bounds the upload post; zero means no bound beyond the HTTP client's
	UploadTimeout time.Duration
	// OnProgress receives upload progress from the posting goroutine
	OnProgress utils.ProgressCallback
}

// OptionsFromConfig derives session options for path from configuration
func OptionsFromConfig(cfg *config.Config, path string) Options {
	return Options{
		CurrentPath:    path,
		RedirectDelay:  cfg.UI.RedirectDelay,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		RequestTimeout: cfg.RequestTimeout(),
	}
}

// Session is the interaction state of one page. A new one is built for every page
// and the old one dropped; results issued by a dropped session are ignored.
type Session struct {
	Modals   *Modals
	Lightbox *Lightbox
	Upload   *UploadPipeline
	Gate     *AuthGate
	Forms    *FormSubmitter
	Nav      *NavigationGuard
	DragDrop *DragDropAdapter

	tracker *Tracker
}

// NewSession wires the interaction components for the page at opts.CurrentPath
func NewSession(p Presenter, backend Backend, opts Options) *Session {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if opts.RedirectDelay < 0 {
		opts.RedirectDelay = 0
	}

	tracker := NewTracker()
	modals := NewModals()
	gate := &AuthGate{checker: backend, timeout: opts.RequestTimeout}

	upload := newUploadPipeline(p, modals, tracker, backend, opts)

	s := &Session{
		Modals:   modals,
		Lightbox: NewLightbox(modals),
		Upload:   upload,
		Gate:     gate,
		Forms:    newFormSubmitter(backend, p, modals, tracker, opts),
		Nav: &NavigationGuard{
			current:   opts.CurrentPath,
			gate:      gate,
			logouter:  backend,
			modals:    modals,
			presenter: p,
			tracker:   tracker,
			opts:      opts,
		},
		DragDrop: &DragDropAdapter{pipeline: upload, presenter: p},
		tracker:  tracker,
	}

	logrus.WithField("path", opts.CurrentPath).Debug("Session: created")
	return s
}

// Path returns the page this session belongs to
func (s *Session) Path() string {
	return s.Nav.Current()
}

// Update applies results of tasks this session issued; results from superseded
// tickets or other sessions are dropped. Messages that are not task results
// return (nil, false) so the caller can route them elsewhere.
func (s *Session) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case TaskResult[Preview]:
		return s.Upload.applyPreview(msg), true
	case TaskResult[UploadReply]:
		return s.Upload.applyUpload(msg), true
	case TaskResult[AuthVerdict]:
		return s.Nav.applyVerdict(msg), true
	case TaskResult[FormReply]:
		return s.Forms.apply(msg), true
	case TaskResult[struct{}]:
		return s.Nav.applyLogout(msg), true
	case RedirectMsg:
		return s.Forms.applyRedirect(msg), true
	}
	return nil, false
}
