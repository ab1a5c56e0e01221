package messaging

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/tui/theme"
)

// MessageType represents different message types for popup display
type MessageType int

// Message type constants
const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// DefaultDuration is how long a popup stays up
const DefaultDuration = time.Second

// DismissMsg asks the popup to hide the message it was scheduled for
type DismissMsg struct {
	seq uint64
}

// Popup shows one transient message at a time. A new message replaces the
// current one; each dismissal only hides the message it was scheduled for.
type Popup struct {
	message     string
	messageType MessageType
	duration    time.Duration
	seq         uint64
}

// NewPopup creates a popup that hides messages after duration
func NewPopup(duration time.Duration) *Popup {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Popup{duration: duration}
}

// Show replaces the current message and schedules its dismissal
func (p *Popup) Show(message string, msgType MessageType) tea.Cmd {
	p.seq++
	p.message = message
	p.messageType = msgType
	logrus.Debugf("Popup: showing message='%s', type=%d", message, msgType)

	seq := p.seq
	return tea.Tick(p.duration, func(time.Time) tea.Msg {
		return DismissMsg{seq: seq}
	})
}

// Update consumes dismissal ticks. It reports whether msg was one.
func (p *Popup) Update(msg tea.Msg) bool {
	dismiss, ok := msg.(DismissMsg)
	if !ok {
		return false
	}
	if dismiss.seq == p.seq {
		p.Clear()
	}
	return true
}

// Clear hides the current message
func (p *Popup) Clear() {
	p.message = ""
}

// Message returns the current message, type, and whether a message is showing
func (p *Popup) Message() (string, MessageType, bool) {
	return p.message, p.messageType, p.message != ""
}

// Visible reports whether a message is showing
func (p *Popup) Visible() bool {
	return p.message != ""
}

// View renders the current message with appropriate styling
func (p *Popup) View() string {
	if !p.Visible() {
		return ""
	}

	color := theme.GetMessageColor(int(p.messageType))
	icon := theme.GetMessageIcon(int(p.messageType))

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(0, 1).
		Bold(true)

	return style.Render(fmt.Sprintf("%s %s", icon, p.message))
}
