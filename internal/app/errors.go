package app

import "errors"

// Application errors.
var (
	// ErrClosed indicates the application has been shut down.
	ErrClosed = errors.New("application is shut down")

	// ErrNoScript indicates a reload was requested without a script.
	ErrNoScript = errors.New("no script configured")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ReloadError reports a script reload that failed. The previous tree stays
// active.
type ReloadError struct {
	Path string
	Err  error
}

func (e *ReloadError) Error() string {
	return "reload " + e.Path + ": " + e.Err.Error()
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}
