package transform

import (
	"errors"
	"fmt"
)

// ErrNoPayBasis marks a worker with neither an hourly nor an annual rate.
// Such workers have no job line to write and are skipped.
var ErrNoPayBasis = errors.New("no hourly or annual rate")

// MalformedError reports a source record that cannot be projected.
type MalformedError struct {
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s", e.Field)
	}
	return fmt.Sprintf("malformed %s: %v", e.Field, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a *MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

func malformed(field string, err error) error {
	return &MalformedError{Field: field, Err: err}
}

var errMissing = errors.New("missing")
