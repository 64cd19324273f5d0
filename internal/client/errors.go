package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Method string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// IsAuth reports whether err is a 401 or 403. Auth failures end the run.
func IsAuth(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
	}
	return false
}

// IsRateLimited reports whether err is a 429 that survived every retry.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// DecodeError is a 2xx response whose body did not decode.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// fatal reports whether a fetch error should abort the whole read rather
// than skip one page.
func fatal(ctx context.Context, err error) bool {
	return IsAuth(err) || ctx.Err() != nil
}
