package client

import (
	"errors"
	"fmt"
)

// ErrBadData marks a response whose shape is not what the endpoint
// promises, such as a price response without its nested item list.
var ErrBadData = errors.New("malformed backend response")

// StatusError is a non-2xx backend response. The body is ignored.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.Endpoint, e.Status)
}

// APIError is a 2xx response that reports failure in its payload.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request to %s was not successful", e.Endpoint)
	}
	return e.Message
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
