package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"kanban-board/domain"
)

var errInvalidBody = errors.New("invalid body")

// validationError rejects a well-formed body whose values are unacceptable.
type validationError string

func (e validationError) Error() string { return string(e) }

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr validationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrCrossBoardMove),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a plain text response. Unexpected errors are logged and
// hidden from the caller.
func fail(c echo.Context, stage string, err error) error {
	metricsFrom(c).SetErrorStage(stage)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.String(status, "internal error")
	}
	return c.String(status, err.Error())
}
