// Package common defines sentinel errors and shared constants used across
// the ragchat client. Callers match these values with errors.Is.
package common

import "errors"

var (
	// ErrValidation covers 4xx responses from login/register/profile
	// updates. The server-provided detail is attached by wrapping; the
	// session is never mutated.
	ErrValidation = errors.New("validation error")

	// ErrUnavailable marks transient transport failures and 5xx
	// responses. The stored session is left untouched so the operation
	// can be retried later with the same tokens.
	ErrUnavailable = errors.New("server unavailable")

	// ErrRefreshRejected means the server no longer accepts our refresh
	// token (expired, revoked, or unknown). Terminal: the stored session
	// is cleared and no further automatic refresh is attempted.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrUnauthorized means an authorized call still came back 401 after
	// one coordinated refresh-and-retry. The session is left intact since
	// the failure may be endpoint-specific rather than session-wide.
	ErrUnauthorized = errors.New("unauthorized")
)
