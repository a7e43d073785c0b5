// Package apperr defines the error kinds of an export run.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrPanelFetch = errors.New("panel fetch failed")
	ErrParse      = errors.New("parse error")
	ErrWrite      = errors.New("write error")
	ErrUsage      = errors.New("usage error")
)

// NotFoundError reports a root asset that could not be fetched.
type NotFoundError struct {
	Type string
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("did not find any %s named %s", e.Type, e.ID)
	if e.Err != nil && !errors.Is(e.Err, ErrNotFound) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.Err }

// PanelError reports a dashboard panel that could not be resolved.
type PanelError struct {
	Dashboard string
	ID        string
	Type      string
	Err       error
}

func (e *PanelError) Error() string {
	msg := fmt.Sprintf("failed to get asset %s needed by dashboard %s", e.ID, e.Dashboard)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PanelError) Is(target error) bool { return target == ErrPanelFetch }

func (e *PanelError) Unwrap() error { return e.Err }

// ParseError reports a malformed serialized field.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s", e.Field)
	}
	return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a failure writing one output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

func (e *WriteError) Unwrap() error { return e.Err }

// Usage returns an error of kind ErrUsage with the given message.
func Usage(msg string) error {
	return fmt.Errorf("%w: %s", ErrUsage, msg)
}
