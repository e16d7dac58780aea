package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// MapTransportError maps failures of an outbound request to AppError instances.
// It handles:
// - context deadline/cancellation → Timeout/Canceled
// - token retrieval failures → Auth
// - Google API errors with 401/403 → Auth, any other status → Transport
// - everything else → Transport
//
// Errors that already carry an AppError are returned unchanged.
func MapTransportError(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: op + " timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: op + " canceled", Cause: err}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AppError{Code: ErrCodeAuth, Message: op + ": token exchange failed", Cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &AppError{Code: statusCode(apiErr.Code), Message: op + " failed", Cause: err}
	}

	return &AppError{Code: ErrCodeTransport, Message: op + " failed", Cause: err}
}

// HTTPStatus builds an error for a non-2xx response. body is a short excerpt of
// the response payload and may be empty.
func HTTPStatus(op string, status int, body string) *AppError {
	msg := op + ": unexpected status " + http.StatusText(status)
	if excerpt := strings.TrimSpace(body); excerpt != "" {
		msg += ": " + excerpt
	}
	return &AppError{Code: statusCode(status), Message: msg}
}

func statusCode(status int) ErrorCode {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrCodeAuth
	}
	return ErrCodeTransport
}
