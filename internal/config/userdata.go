package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// UserDataPathOverride allows overriding the user.data location for tests.
var UserDataPathOverride string

// StoredCookie is a session cookie remembered between runs
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UserData holds user-specific settings that are stored locally
type UserData struct {
	LastUsername string         `json:"last_username"`
	ServerURL    string         `json:"server_url"`
	Cookies      []StoredCookie `json:"cookies"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// LoadUserData loads user data from the user.data file in the state directory.
// A missing or unreadable file yields empty defaults.
func LoadUserData() (*UserData, error) {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return createDefaultUserData(), nil
	}

	if _, err := os.Stat(userDataPath); os.IsNotExist(err) {
		return createDefaultUserData(), nil
	}

	lock := flock.New(userDataPath + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock user data: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(userDataPath)
	if err != nil {
		return createDefaultUserData(), nil
	}

	var userData UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		// Invalid JSON, return default
		return createDefaultUserData(), nil
	}

	return &userData, nil
}

// SaveUserData saves user data to the user.data file
func (ud *UserData) SaveUserData() error {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return err
	}

	ud.UpdatedAt = time.Now()
	if ud.CreatedAt.IsZero() {
		ud.CreatedAt = ud.UpdatedAt
	}

	data, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return err
	}

	// The TUI and one-shot commands may run side by side
	lock := flock.New(userDataPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock user data: %w", err)
	}
	defer lock.Unlock()

	// Cookies are credentials, keep the file private
	return os.WriteFile(userDataPath, data, 0600)
}

// SetSession records the session cookies for a server and saves to file
func (ud *UserData) SetSession(serverURL string, cookies []StoredCookie) error {
	ud.ServerURL = serverURL
	ud.Cookies = cookies
	return ud.SaveUserData()
}

// ClearSession forgets the stored session and saves to file
func (ud *UserData) ClearSession() error {
	ud.Cookies = nil
	return ud.SaveUserData()
}

// SessionFor returns the stored cookies if they belong to serverURL
func (ud *UserData) SessionFor(serverURL string) []StoredCookie {
	if ud.ServerURL != serverURL {
		return nil
	}
	return ud.Cookies
}

// SetLastUsername remembers the username used for the last login
func (ud *UserData) SetLastUsername(username string) error {
	ud.LastUsername = username
	return ud.SaveUserData()
}

// createDefaultUserData creates a new UserData with default values
func createDefaultUserData() *UserData {
	now := time.Now()
	return &UserData{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// getUserDataPath returns the path to the user.data file
func getUserDataPath() (string, error) {
	if UserDataPathOverride != "" {
		if err := os.MkdirAll(filepath.Dir(UserDataPathOverride), 0700); err != nil {
			return "", err
		}
		return UserDataPathOverride, nil
	}

	dir := StateDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "user.data"), nil
}
