package interaction

import (
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
)

const keyRedirect = "form:redirect"

// Form names an asynchronously submitted form
type Form int

const (
	FormLogin Form = iota
	FormRegister
)

type formNotices struct {
	succeeded string
	rejected  string
	failed    string
}

var notices = map[Form]formNotices{
	FormLogin: {
		succeeded: "Login successful!",
		rejected:  "Login failed",
		failed:    "Login error. Please try again.",
	},
	FormRegister: {
		succeeded: "Registration successful!",
		rejected:  "Registration failed",
		failed:    "Registration error. Please try again.",
	},
}

func (f Form) String() string {
	if f == FormRegister {
		return "register"
	}
	return "login"
}

// Modal returns the dialog that hosts the form
func (f Form) Modal() ModalID {
	if f == FormRegister {
		return ModalRegister
	}
	return ModalLogin
}

func (f Form) key() string {
	return "form:" + f.String()
}

// FormReply is the result of one form post
type FormReply struct {
	Form    Form
	Outcome *api.FormOutcome
}

// RedirectMsg fires once the post-success delay elapses
type RedirectMsg struct {
	Ticket Ticket
	Path   string
}

// FormSubmitter posts login and register forms without leaving the page
type FormSubmitter struct {
	poster    FormPoster
	presenter Presenter
	modals    *Modals
	tracker   *Tracker
	opts      Options

	inFlight map[Form]bool
}

func newFormSubmitter(fp FormPoster, p Presenter, m *Modals, t *Tracker, opts Options) *FormSubmitter {
	return &FormSubmitter{
		poster:    fp,
		presenter: p,
		modals:    m,
		tracker:   t,
		opts:      opts,
		inFlight:  make(map[Form]bool),
	}
}

// Submit posts fields for form. A second submit while one is outstanding is ignored.
func (s *FormSubmitter) Submit(form Form, fields url.Values) tea.Cmd {
	if s.inFlight[form] {
		logrus.Debugf("FormSubmitter: %s already in flight, ignoring submit", form)
		return nil
	}
	s.inFlight[form] = true

	ticket := s.tracker.Issue(form.key())
	poster, timeout := s.poster, s.opts.RequestTimeout
	return Run(ticket, func() (FormReply, error) {
		ctx, cancel := withTimeout(timeout)
		defer cancel()

		var outcome *api.FormOutcome
		var err error
		if form == FormRegister {
			outcome, err = poster.Register(ctx, fields)
		} else {
			outcome, err = poster.Login(ctx, fields)
		}
		return FormReply{Form: form, Outcome: outcome}, err
	})
}

// InFlight reports whether form has an outstanding submission
func (s *FormSubmitter) InFlight(form Form) bool {
	return s.inFlight[form]
}

func (s *FormSubmitter) apply(res TaskResult[FormReply]) tea.Cmd {
	form := res.Value.Form
	if !s.tracker.Fresh(res.Ticket) {
		return nil
	}
	s.inFlight[form] = false

	text, kind, err := interpretOutcome(form, res.Value.Outcome, res.Err)
	if err != nil {
		logrus.WithError(err).Info("FormSubmitter: submission did not succeed")
		return s.presenter.Notify(text, kind)
	}

	s.modals.Close(form.Modal())
	target := res.Value.Outcome.Redirect
	if target == "" {
		target = api.PathHome
	}
	return tea.Batch(
		s.presenter.Notify(text, kind),
		s.redirectAfter(s.opts.RedirectDelay, target),
	)
}

// DescribeOutcome returns the notice the client shows for a form reply, and a
// *FormSubmissionError unless the form succeeded
func DescribeOutcome(form Form, outcome *api.FormOutcome, err error) (string, error) {
	text, _, err := interpretOutcome(form, outcome, err)
	return text, err
}

// interpretOutcome picks the notice for a form reply; err is non-nil unless it succeeded
func interpretOutcome(form Form, outcome *api.FormOutcome, err error) (string, messaging.MessageType, error) {
	n := notices[form]
	if err != nil {
		return n.failed, messaging.MessageError, &FormSubmissionError{Form: form, Err: err}
	}
	if outcome == nil || !outcome.Success {
		text := n.rejected
		var message string
		if outcome != nil && outcome.Message != "" {
			message = outcome.Message
			text = message
		}
		return text, messaging.MessageError, &FormSubmissionError{Form: form, Message: message}
	}
	return n.succeeded, messaging.MessageSuccess, nil
}

func (s *FormSubmitter) redirectAfter(delay time.Duration, path string) tea.Cmd {
	ticket := s.tracker.Issue(keyRedirect)
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return RedirectMsg{Ticket: ticket, Path: path}
	})
}

func (s *FormSubmitter) applyRedirect(msg RedirectMsg) tea.Cmd {
	if !s.tracker.Fresh(msg.Ticket) {
		return nil
	}
	s.tracker.Retire(keyRedirect)
	return s.presenter.Navigate(msg.Path)
}
