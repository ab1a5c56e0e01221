package api

import (
	"errors"
	"fmt"
)

// Server paths. The client binds to these as a fixed contract with the site.
const (
	PathCheckAuth = "/api/check-auth"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathLogout    = "/logout"
	PathUpload    = "/upload"
	PathGallery   = "/gallery"
	PathMyImages  = "/images"
	PathHome      = "/"
)

// ErrNotAuthenticated is returned when the server bounces a request to the login page
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthStatus is the session-status endpoint's response
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
}

// FormOutcome is the structured login/register (and JSON upload) response
type FormOutcome struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// GalleryItem is one image card scraped from a gallery page
type GalleryItem struct {
	ID           string
	Caption      string
	OriginalURL  string
	ThumbnailURL string
}

// Page is a scraped listing page
type Page struct {
	Items   []GalleryItem
	Flashes []string
}

// StatusError reports an unexpected HTTP status
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code %d", e.Op, e.Code)
}

// RequestError wraps a transport or decoding failure
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
