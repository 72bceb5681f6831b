package httpx

import (
	"errors"
	"net/http"

	"github.com/manish6022/hrone-sub000/internal/shared"
)

// StatusFor maps a taxonomy error onto its HTTP status code: 401 for
// credential problems, 403 for privilege and CSRF failures, 429 for rate
// limiting, 400 for malformed request shapes, 500 otherwise.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingCredential),
		errors.Is(err, shared.ErrMalformedToken),
		errors.Is(err, shared.ErrExpiredToken),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInsufficientPrivilege),
		errors.Is(err, shared.ErrCSRFMismatch):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrInvalidRequestShape):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError converts a taxonomy error into an error envelope. Internal
// failures never leak their message to the client.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := "An unexpected error occurred"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	Error(w, status, message)
}
