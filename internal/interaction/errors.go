package interaction

import (
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge is returned when a candidate exceeds the upload size limit
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned when a candidate is not an image
	ErrUnsupportedType = errors.New("unsupported file type")
)

// AuthCheckError wraps a failed session-status request. It is treated as not authenticated.
type AuthCheckError struct {
	Err error
}

func (e *AuthCheckError) Error() string {
	return fmt.Sprintf("auth check failed: %v", e.Err)
}

func (e *AuthCheckError) Unwrap() error {
	return e.Err
}

// FormSubmissionError reports a rejected or failed login/register submission
type FormSubmissionError struct {
	Form    Form
	Message string
	Err     error
}

func (e *FormSubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s submission failed: %v", e.Form, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s rejected: %s", e.Form, e.Message)
	}
	return fmt.Sprintf("%s rejected", e.Form)
}

func (e *FormSubmissionError) Unwrap() error {
	return e.Err
}
