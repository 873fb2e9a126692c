package shareclient

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the share link does not exist.
var ErrNotFound = errors.New("share link not found")

// ExpiredError is returned for revoked and expired links. Detail carries the
// server's message verbatim.
type ExpiredError struct {
	Detail string
}

func (e *ExpiredError) Error() string {
	return e.Detail
}

// UnauthorizedError is returned for password failures. Detail carries the
// server's message verbatim.
type UnauthorizedError struct {
	Detail string
}

func (e *UnauthorizedError) Error() string {
	return e.Detail
}

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsExpired reports whether err is an ExpiredError.
func IsExpired(err error) bool {
	var e *ExpiredError
	return errors.As(err, &e)
}

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}
