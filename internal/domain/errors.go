package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied signals that the caller may not see the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnauthenticated signals a missing or invalid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidFilter signals a malformed filter criterion.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnavailable signals a transient storage failure. Callers must be able
	// to tell this apart from an empty result set.
	ErrUnavailable = errors.New("storage unavailable")
)
