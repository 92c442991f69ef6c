package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrMissingGoal    = errors.New("target role is required")
	ErrMissingResume  = errors.New("resume file is required")
	ErrEmptyMessage   = errors.New("message is required")
	ErrSessionExpired = errors.New("interview session not found")
)
