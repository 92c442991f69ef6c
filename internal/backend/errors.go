package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend or AI call so that each screen can decide
// how to present it and whether to retry.
type Kind string

const (
	KindConfig       Kind = "config"
	KindUnauthorized Kind = "unauthorized"
	KindNetwork      Kind = "network"
	KindBackend      Kind = "backend"
	KindQuota        Kind = "quota"
	KindDecode       Kind = "decode"
	KindValidation   Kind = "validation"
)

// Error is returned by every Client call that fails.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text a screen shows inline. Server provided messages win
// over generic copy.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindUnauthorized:
		return "Please sign in to continue"
	case KindQuota:
		return "You have used your free interview. Upgrade to continue."
	case KindNetwork:
		return "Network error, please try again"
	case KindDecode, KindValidation:
		return "Unexpected response from server"
	default:
		return "Something went wrong"
	}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}
