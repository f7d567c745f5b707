// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
)

// Sentinel errors for browser lifecycle failures. These are fatal to the
// run: callers propagate them instead of retrying.
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserLaunch   = errors.New("browser failed to launch")
	ErrNotStarted      = errors.New("browser manager not started")
	ErrManagerClosed   = errors.New("browser manager closed")
	ErrPoolClosed      = errors.New("page pool closed")
)

// ErrorCode classifies a browser-layer failure.
type ErrorCode string

const (
	CodeLaunch     ErrorCode = "LAUNCH"
	CodeNavigation ErrorCode = "NAVIGATION"
	CodeSession    ErrorCode = "SESSION"
	CodeTimeout    ErrorCode = "TIMEOUT"
)

// Error wraps a browser failure with a code and context message.
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a browser Error.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Underlying: err}
}
