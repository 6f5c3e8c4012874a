package models

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ModelError collects the semantic validation failures of a model.
// The CRUD views merge its messages into the redisplayed form instead
// of aborting the request.
type ModelError struct {
	err *multierror.Error
}

// Appendf records a validation failure.
func (e *ModelError) Appendf(format string, args ...any) {
	e.err = multierror.Append(e.err, fmt.Errorf(format, args...))
}

// HasErrors reports whether any failure was recorded.
func (e *ModelError) HasErrors() bool {
	return e != nil && e.err.ErrorOrNil() != nil
}

// Messages returns the recorded failures as display strings.
func (e *ModelError) Messages() []string {
	if e == nil || e.err == nil {
		return nil
	}
	msgs := make([]string, 0, len(e.err.Errors))
	for _, err := range e.err.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func (e *ModelError) Error() string {
	return e.err.Error()
}

// ErrOrNil returns the error itself when failures were recorded, nil
// otherwise. Validate implementations end with it.
func (e *ModelError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// AsModelError extracts a *ModelError from an error chain.
func AsModelError(err error) (*ModelError, bool) {
	var merr *ModelError
	if errors.As(err, &merr) {
		return merr, true
	}
	return nil, false
}
