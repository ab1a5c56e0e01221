package interaction

import "github.com/sirupsen/logrus"

// ModalID names one of the fixed dialogs
type ModalID int

const (
	ModalLogin ModalID = iota
	ModalRegister
	ModalUpload
	ModalLightbox
)

// focusOrder lists modals from front to back for key routing
var focusOrder = []ModalID{ModalLightbox, ModalLogin, ModalRegister, ModalUpload}

func (id ModalID) String() string {
	switch id {
	case ModalLogin:
		return "login"
	case ModalRegister:
		return "register"
	case ModalUpload:
		return "upload"
	case ModalLightbox:
		return "image-lightbox"
	default:
		return "unknown"
	}
}

func (id ModalID) valid() bool {
	return id >= ModalLogin && id <= ModalLightbox
}

// Modals owns dialog visibility and the page scroll lock.
// The lock is held exactly while at least one modal is visible.
type Modals struct {
	visible      map[ModalID]bool
	scrollLocked bool
}

// NewModals creates an orchestrator with every modal hidden
func NewModals() *Modals {
	return &Modals{visible: make(map[ModalID]bool)}
}

// Open shows id. Login and register are mutually exclusive.
func (m *Modals) Open(id ModalID) {
	if !id.valid() {
		return
	}
	m.visible[id] = true
	switch id {
	case ModalLogin:
		m.visible[ModalRegister] = false
	case ModalRegister:
		m.visible[ModalLogin] = false
	}
	m.syncScrollLock()
	logrus.Debugf("Modals: opened %s", id)
}

// Close hides id
func (m *Modals) Close(id ModalID) {
	if !id.valid() || !m.visible[id] {
		return
	}
	m.visible[id] = false
	m.syncScrollLock()
	logrus.Debugf("Modals: closed %s", id)
}

// CloseOnOutsideClick closes id when the click landed on its backdrop
// rather than its content. It reports whether the modal was closed.
func (m *Modals) CloseOnOutsideClick(id ModalID, onBackdrop bool) bool {
	if !onBackdrop || !m.IsOpen(id) {
		return false
	}
	m.Close(id)
	return true
}

// CloseButton handles a close control tagged with id.
// The lightbox has no close control; it is dismissed by clicking the image.
func (m *Modals) CloseButton(id ModalID) bool {
	if id == ModalLightbox || !m.IsOpen(id) {
		return false
	}
	m.Close(id)
	return true
}

// SwitchToRegister replaces the login form with the register form
func (m *Modals) SwitchToRegister() {
	m.Close(ModalLogin)
	m.Open(ModalRegister)
}

// SwitchToLogin replaces the register form with the login form
func (m *Modals) SwitchToLogin() {
	m.Close(ModalRegister)
	m.Open(ModalLogin)
}

// IsOpen reports whether id is visible
func (m *Modals) IsOpen(id ModalID) bool {
	return m.visible[id]
}

// Visible returns the open modals, front first
func (m *Modals) Visible() []ModalID {
	var open []ModalID
	for _, id := range focusOrder {
		if m.visible[id] {
			open = append(open, id)
		}
	}
	return open
}

// Top returns the modal that receives key input
func (m *Modals) Top() (ModalID, bool) {
	for _, id := range focusOrder {
		if m.visible[id] {
			return id, true
		}
	}
	return 0, false
}

// ScrollLocked reports whether the page underneath is frozen
func (m *Modals) ScrollLocked() bool {
	return m.scrollLocked
}

func (m *Modals) syncScrollLock() {
	locked := false
	for _, open := range m.visible {
		if open {
			locked = true
			break
		}
	}
	m.scrollLocked = locked
}
