package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for the storefront error taxonomy.
var (
	// ErrConfiguration signals a missing upstream base URL or credential.
	// Fatal at startup, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthExpired signals that the upstream rejected the anti-forgery
	// token. Recovered locally by one token refresh and retry; surfaced
	// only when the retry also fails.
	ErrAuthExpired = errors.New("authorization expired")

	// ErrTransient covers timeouts, connection failures, 5xx, 408 and 429.
	// Retried with linear backoff before being surfaced.
	ErrTransient = errors.New("transient network error")

	// ErrValidation covers all other 4xx responses. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrCheckoutFailed signals a non-success relay response during order
	// creation. The local cart is left untouched so the user can retry.
	ErrCheckoutFailed = errors.New("checkout failed")

	// ErrNotJSON signals a non-JSON upstream body (typically an HTML error
	// page from a misconfigured endpoint).
	ErrNotJSON = errors.New("response is not JSON")

	ErrNotFound = errors.New("resource not found")
	ErrInternal = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Configuration creates a fatal configuration error for a missing setting.
func Configuration(setting string) *AppError {
	return &AppError{
		Code:    "CONFIGURATION_ERROR",
		Message: fmt.Sprintf("required setting %s is missing", setting),
		Status:  http.StatusInternalServerError,
		Err:     ErrConfiguration,
	}
}

// AuthExpired creates an error for an anti-forgery token the upstream
// rejected even after a refresh.
func AuthExpired(message string) *AppError {
	return &AppError{
		Code:    "AUTHORIZATION_EXPIRED",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrAuthExpired,
	}
}

// Transient creates a retryable network error carrying the upstream status.
func Transient(status int, message string) *AppError {
	return &AppError{
		Code:    "TRANSIENT_NETWORK_ERROR",
		Message: message,
		Status:  status,
		Err:     ErrTransient,
	}
}

// Validation creates a non-retryable 4xx error with the upstream's message.
func Validation(status int, message string) *AppError {
	if status < 400 || status >= 500 {
		status = http.StatusBadRequest
	}
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  status,
		Err:     ErrValidation,
	}
}

// CheckoutFailed creates an error for a failed order-creation hand-off.
func CheckoutFailed(message string) *AppError {
	return &AppError{
		Code:    "CHECKOUT_FAILED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrCheckoutFailed,
	}
}

// NotJSON creates an error for a body that failed to parse as JSON.
func NotJSON(status int, detail string) *AppError {
	return &AppError{
		Code:    "NOT_JSON",
		Message: fmt.Sprintf("upstream returned a non-JSON body (status %d): %s", status, detail),
		Status:  http.StatusBadGateway,
		Err:     ErrNotJSON,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// IsRetryable reports whether the error belongs to the transient class.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthExpired):
		return http.StatusForbidden
	case errors.Is(err, ErrCheckoutFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTransient), errors.Is(err, ErrNotJSON):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
