package gdrive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for status classification.
// Use errors.Is(err, gdrive.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("gdrive: bad request")
	ErrUnauthorized = errors.New("gdrive: unauthorized")
	ErrForbidden    = errors.New("gdrive: forbidden")
	ErrNotFound     = errors.New("gdrive: not found")
	ErrThrottled    = errors.New("gdrive: throttled")
	ErrServerError  = errors.New("gdrive: server error")
	ErrRequest      = errors.New("gdrive: request failed")
)

// GatewayError is returned for any failed remote call
type GatewayError struct {
	Op         string
	StatusCode int
	Reason     string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gdrive: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("gdrive: %s: %s", e.Op, e.Reason)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AuthError is returned when credentials cannot be obtained or refreshed
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gdrive: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// newGatewayError converts a transport or API error into a GatewayError.
// Errors that already are gateway or auth errors pass through unchanged.
func newGatewayError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		reason := apiErr.Message
		if reason == "" {
			reason = http.StatusText(apiErr.Code)
		}
		return &GatewayError{
			Op:         op,
			StatusCode: apiErr.Code,
			Reason:     reason,
			Err:        classifyStatus(apiErr.Code),
		}
	}

	return &GatewayError{
		Op:     op,
		Reason: err.Error(),
		Err:    fmt.Errorf("%w: %w", ErrRequest, err),
	}
}

// classifyStatus maps an HTTP status code to a sentinel error
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}
		return ErrRequest
	}
}

// isAuthFailure reports whether err stems from missing or rejected credentials
func isAuthFailure(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	return errors.Is(err, ErrUnauthorized)
}

func asAuthError(err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return &AuthError{Err: err}
}
