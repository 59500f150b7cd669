package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrValidation        = errors.New("validation error")
	ErrGatewayTransport  = errors.New("gateway transport error")
	ErrGatewayRejected   = errors.New("gateway rejected bundle")
	ErrIllegalTransition = errors.New("illegal alert transition")
	ErrNotFound          = errors.New("resource not found")
	ErrInternal          = errors.New("internal error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a validation error with field details. Validation
// failures are rejected before any network call is made.
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// GatewayTransport creates an error for connectivity failures (DNS,
// connection refused, timeout) on the way to the FHIR store.
func GatewayTransport(err error) *AppError {
	return &AppError{
		Err:        ErrGatewayTransport,
		Message:    fmt.Sprintf("fhir store unreachable: %v", err),
		Code:       "GATEWAY_TRANSPORT",
		HTTPStatus: http.StatusBadGateway,
	}
}

// GatewayRejected creates an error for a bundle the FHIR store refused.
// The server diagnostic is carried verbatim so operators see what the
// store actually complained about.
func GatewayRejected(status int, serverMessage string) *AppError {
	return &AppError{
		Err:        ErrGatewayRejected,
		Message:    fmt.Sprintf("fhir store rejected bundle with status %d", status),
		Code:       "GATEWAY_REJECTED",
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]string{
			"status": fmt.Sprintf("%d", status),
			"server": serverMessage,
		},
	}
}

// StateTransition creates an error for an illegal alert state machine
// transition. The state is left unchanged.
func StateTransition(message string) *AppError {
	return &AppError{
		Err:        ErrIllegalTransition,
		Message:    message,
		Code:       "ILLEGAL_TRANSITION",
		HTTPStatus: http.StatusConflict,
	}
}

// NotFound creates a not found error
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
