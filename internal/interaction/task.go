package interaction

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Ticket identifies one issued asynchronous action. A result is applied only
// while its ticket is still the newest one issued for its key.
type Ticket struct {
	Owner string
	Key   string
	Seq   uint64
}

// Tracker issues tickets for one Session
type Tracker struct {
	owner  string
	seq    uint64
	latest map[string]uint64
}

// NewTracker creates a tracker with a unique owner id
func NewTracker() *Tracker {
	return &Tracker{
		owner:  uuid.NewString(),
		latest: make(map[string]uint64),
	}
}

// Issue returns a new ticket for key, superseding any earlier one
func (t *Tracker) Issue(key string) Ticket {
	t.seq++
	t.latest[key] = t.seq
	return Ticket{Owner: t.owner, Key: key, Seq: t.seq}
}

// Fresh reports whether tk is the newest ticket for its key
func (t *Tracker) Fresh(tk Ticket) bool {
	if tk.Owner != t.owner || tk.Seq == 0 {
		return false
	}
	return t.latest[tk.Key] == tk.Seq
}

// Retire invalidates every outstanding ticket for key
func (t *Tracker) Retire(key string) {
	delete(t.latest, key)
}

// TaskResult is the message an asynchronous task sends back into Update
type TaskResult[T any] struct {
	Ticket Ticket
	Value  T
	Err    error
}

// Run wraps fn as a command whose result carries ticket
func Run[T any](ticket Ticket, fn func() (T, error)) tea.Cmd {
	return func() tea.Msg {
		value, err := fn()
		return TaskResult[T]{Ticket: ticket, Value: value, Err: err}
	}
}

// withTimeout returns a request context bounded by d (unbounded when d <= 0)
func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
