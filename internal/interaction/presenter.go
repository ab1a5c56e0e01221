package interaction

import (
	"context"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
)

// Presenter is what the screen exposes to the interaction core
type Presenter interface {
	// Notify shows a transient message
	Notify(text string, kind messaging.MessageType) tea.Cmd
	// Navigate leaves the current page. The current Session is discarded.
	Navigate(path string) tea.Cmd
	// ResetFileInput clears the upload path field so the same file can be chosen again
	ResetFileInput()
}

// AuthChecker answers whether the session is signed in
type AuthChecker interface {
	CheckAuth(ctx context.Context) (bool, error)
}

// FormPoster posts the login and register forms
type FormPoster interface {
	Login(ctx context.Context, fields url.Values) (*api.FormOutcome, error)
	Register(ctx context.Context, fields url.Values) (*api.FormOutcome, error)
}

// Uploader posts an image
type Uploader interface {
	Upload(ctx context.Context, req api.UploadRequest) (*api.FormOutcome, error)
}

// Logouter ends the server session
type Logouter interface {
	Logout(ctx context.Context) error
}

// Backend is everything a Session needs from the server; *api.Client satisfies it
type Backend interface {
	AuthChecker
	FormPoster
	Uploader
	Logouter
}
