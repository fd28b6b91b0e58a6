package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError is an error that knows which status code it maps to.
type HTTPError interface {
	error
	StatusCode() int
}

type apiError struct {
	msg  string
	code int
}

func (e *apiError) Error() string   { return e.msg }
func (e *apiError) StatusCode() int { return e.code }

var (
	ErrSlotInFuture       = &apiError{msg: "slot in future", code: http.StatusBadRequest}
	ErrSlotNotFound       = &apiError{msg: "slot not found", code: http.StatusNotFound}
	ErrSlotTooFarInFuture = &apiError{msg: "slot too far in future", code: http.StatusBadRequest}

	ErrRequestTimeout = &apiError{msg: "request timed out", code: http.StatusGatewayTimeout}
	ErrInternal       = &apiError{msg: "internal server error", code: http.StatusInternalServerError}
)

// AsHTTP finds the first HTTPError in err's chain.
func AsHTTP(err error) (HTTPError, bool) {
	var he HTTPError
	if stderrors.As(err, &he) {
		return he, true
	}
	return nil, false
}
