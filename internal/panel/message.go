package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/anytimesk/stock-ml-front-end/internal/client"
	"github.com/anytimesk/stock-ml-front-end/internal/validator"
)

// ErrorMessage turns an action error into text for the page.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *client.StatusError
	var apiErr *client.APIError
	switch {
	case errors.Is(err, validator.ErrValidation):
		return validator.Message(err)
	case errors.Is(err, client.ErrBadData):
		return "The server returned data in an unexpected format."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Request failed: %s", statusErr.Status)
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	}
	return err.Error()
}

// ActionView is the rendered state of one action slot.
type ActionView struct {
	Pending bool
	Done    bool
	Error   string
	Message string
	Output  string
}
