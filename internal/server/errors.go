package server

import "errors"

var (
	// ErrForbidden is returned when a caller lacks the role a view
	// requires
	ErrForbidden = errors.New("forbidden")

	// ErrBadCredentials is returned when neither the directory nor
	// the local store accepts a login attempt
	ErrBadCredentials = errors.New("bad credentials")
)
