package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrNotInitialized is returned by Registry.Get before Configure.
	ErrNotInitialized = errors.New("directory client is not initialized")

	// ErrUnknownUser is returned when a directory search matches no entry.
	ErrUnknownUser = errors.New("user not found in directory")
)

// Kind categorizes directory operation failures.
type Kind string

const (
	KindConnection     Kind = "connection"
	KindAuthentication Kind = "authentication"
	KindServer         Kind = "server"
)

// Error wraps a failed directory operation with its category.
type Error struct {
	Op   string // the operation that failed
	Kind Kind
	DN   string // DN involved, if any
	Err  error
}

func (e *Error) Error() string {
	if e.DN != "" {
		return fmt.Sprintf("directory %s failed for %s: %v", e.Op, e.DN, e.Err)
	}
	return fmt.Sprintf("directory %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err is a directory bind rejection.
func IsAuthenticationError(err error) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Kind == KindAuthentication
}

// IsConnectionError reports whether err is a directory connectivity failure.
func IsConnectionError(err error) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Kind == KindConnection
}

// bindErrorKind classifies a failed bind: a rejected credential is an
// authentication failure, anything else counts as a connection problem.
func bindErrorKind(err error) Kind {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultInappropriateAuthentication) {
		return KindAuthentication
	}
	return KindConnection
}
