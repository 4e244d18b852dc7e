package shared

import "errors"

var (
	// ErrNotFound indicates a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrGateDenied indicates a wrong module password.
	ErrGateDenied = errors.New("incorrect password")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
