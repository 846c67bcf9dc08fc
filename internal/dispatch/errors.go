package dispatch

import "errors"

var (
	// ErrUnknownCommand is reported when no handler is registered for a name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("command handler panicked")
	// ErrNotAuthorized is returned by AdminOnly for other users.
	ErrNotAuthorized = errors.New("not authorized")
)

// UserError is a handler failure whose Message is safe to show the user.
type UserError struct {
	Message string
	Err     error
}

// NewUserError builds a UserError shown as message and wrapping err.
func NewUserError(message string, err error) *UserError {
	return &UserError{Message: message, Err: err}
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }
