package interaction

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
)

const keyLogout = "nav:logout"

// Link names a guarded navigation control
type Link int

const (
	LinkHome Link = iota
	LinkGallery
	LinkMyImages
	LinkUpload
	LinkLogin
	LinkLogout
)

// Same-page notices
const (
	MsgAlreadyHome     = "Already in home page"
	MsgAlreadyGallery  = "Already in gallery page"
	MsgAlreadyMyImages = "Already in MyImages page"
	MsgLoggedOut       = "Logged out"
)

func (l Link) String() string {
	switch l {
	case LinkHome:
		return "home"
	case LinkGallery:
		return "gallery"
	case LinkMyImages:
		return "my-images"
	case LinkUpload:
		return "upload"
	case LinkLogin:
		return "login"
	case LinkLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// Path returns the page the link points at; upload and login open dialogs instead
func (l Link) Path() string {
	switch l {
	case LinkHome:
		return api.PathHome
	case LinkGallery:
		return api.PathGallery
	case LinkMyImages:
		return api.PathMyImages
	case LinkLogout:
		return api.PathLogout
	default:
		return ""
	}
}

// IsHomePage reports whether path is the landing page
func IsHomePage(path string) bool {
	return path == "/" || path == "/index" || path == ""
}

// NavigationGuard applies same-page and sign-in checks to link clicks
type NavigationGuard struct {
	current   string
	gate      *AuthGate
	logouter  Logouter
	modals    *Modals
	presenter Presenter
	tracker   *Tracker
	opts      Options
}

// Current returns the path of the page the guard belongs to
func (n *NavigationGuard) Current() string {
	return n.current
}

// Click handles activation of link
func (n *NavigationGuard) Click(link Link) tea.Cmd {
	if text, same := n.samePage(link); same {
		return n.presenter.Notify(text, messaging.MessageInfo)
	}

	switch link {
	case LinkHome, LinkGallery:
		return n.presenter.Navigate(link.Path())
	case LinkMyImages, LinkUpload:
		// each attempt gets a fresh check; only the newest verdict is applied
		return n.gate.Check(n.tracker.Issue(keyAuth), link)
	case LinkLogin:
		n.modals.Open(ModalLogin)
		return nil
	case LinkLogout:
		return n.logout()
	default:
		return nil
	}
}

func (n *NavigationGuard) samePage(link Link) (string, bool) {
	current := strings.TrimRight(n.current, "/")
	switch link {
	case LinkHome:
		return MsgAlreadyHome, IsHomePage(n.current)
	case LinkGallery:
		return MsgAlreadyGallery, current == api.PathGallery
	case LinkMyImages:
		return MsgAlreadyMyImages, current == api.PathMyImages
	default:
		return "", false
	}
}

func (n *NavigationGuard) applyVerdict(res TaskResult[AuthVerdict]) tea.Cmd {
	if !n.tracker.Fresh(res.Ticket) {
		logrus.Debugf("NavigationGuard: discarding superseded auth verdict for %s", res.Value.Intent)
		return nil
	}
	n.tracker.Retire(keyAuth)

	if !res.Value.Authenticated {
		return n.presenter.Notify(MsgPleaseLoginFirst, messaging.MessageWarning)
	}

	switch res.Value.Intent {
	case LinkUpload:
		n.modals.Open(ModalUpload)
		return nil
	case LinkMyImages:
		return n.presenter.Navigate(api.PathMyImages)
	default:
		return nil
	}
}

func (n *NavigationGuard) logout() tea.Cmd {
	if n.logouter == nil {
		return n.presenter.Navigate(api.PathHome)
	}
	ticket := n.tracker.Issue(keyLogout)
	logouter, timeout := n.logouter, n.opts.RequestTimeout
	return Run(ticket, func() (struct{}, error) {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return struct{}{}, logouter.Logout(ctx)
	})
}

func (n *NavigationGuard) applyLogout(res TaskResult[struct{}]) tea.Cmd {
	if !n.tracker.Fresh(res.Ticket) {
		return nil
	}
	n.tracker.Retire(keyLogout)
	if res.Err != nil {
		logrus.WithError(res.Err).Warn("logout failed")
		return n.presenter.Notify("Logout failed", messaging.MessageError)
	}
	return tea.Batch(
		n.presenter.Notify(MsgLoggedOut, messaging.MessageInfo),
		n.presenter.Navigate(api.PathHome),
	)
}
