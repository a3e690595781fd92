package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("payment gateway auth failed")
	ErrGateway    = errors.New("payment gateway error")
	ErrNotFound   = errors.New("not found")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrGateway):
		return "gateway"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error to the status code returned by the storefront API.
// Unknown records are 404; every other failure is reported as 400.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "":
		return http.StatusOK
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// Internal reports whether err has no client-facing meaning, so its text
// should not be shown to the buyer.
func Internal(err error) bool {
	switch Kind(err) {
	case "internal", "timeout":
		return true
	}
	return false
}
