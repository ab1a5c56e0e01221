package interaction

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

const keyAuth = "auth:gate"

// MsgPleaseLoginFirst is shown whenever a gated action is refused
const MsgPleaseLoginFirst = "Please login first"

// AuthVerdict is the outcome of one session check for one gated action
type AuthVerdict struct {
	Intent        Link
	Authenticated bool
}

// AuthGate checks the session before gated actions. Results are never cached
// and failed checks are never retried.
type AuthGate struct {
	checker AuthChecker
	timeout time.Duration
}

// Check asks the server whether the session is signed in on behalf of intent.
// A failed request yields an unauthenticated verdict with an *AuthCheckError.
func (g *AuthGate) Check(ticket Ticket, intent Link) tea.Cmd {
	checker, timeout := g.checker, g.timeout
	return Run(ticket, func() (AuthVerdict, error) {
		ctx, cancel := withTimeout(timeout)
		defer cancel()

		ok, err := checker.CheckAuth(ctx)
		if err != nil {
			checkErr := &AuthCheckError{Err: err}
			logrus.WithError(checkErr).WithField("intent", intent.String()).Warn("AuthGate: treating failed check as signed out")
			return AuthVerdict{Intent: intent}, checkErr
		}
		return AuthVerdict{Intent: intent, Authenticated: ok}, nil
	})
}
