package mediator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deppfellow/booking-backend/internal/errs"
	"github.com/deppfellow/booking-backend/internal/sqlerr"
)

// HandlerNotFoundError is a wiring bug: a request was sent that no handler
// was registered for.
type HandlerNotFoundError struct {
	RequestType string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("mediator: no handler registered for %s", e.RequestType)
}

func (e *HandlerNotFoundError) HTTPError() *errs.HTTPError {
	return errs.NewInternalServerError()
}

// ToHTTPError renders err the way clients see it. Storage errors are
// translated by sqlerr.HandleError; anything unknown is a generic 500.
func ToHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var convertible errs.Convertible
	if errors.As(err, &convertible) {
		return convertible.HTTPError()
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError()
}

// StatusOf returns the HTTP status err will be rendered with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return ToHTTPError(err).Status
}
