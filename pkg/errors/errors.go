package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrUnavailable
	ErrInternal
)

// Reason is the machine-readable failure reason surfaced to API clients.
// The UI must be able to tell "seat taken" from "not authorized" from
// "not found", so every AppError carries one.
type Reason string

const (
	ReasonNotAuthenticated    Reason = "NotAuthenticated"
	ReasonAccessDenied        Reason = "AccessDenied"
	ReasonNotFound            Reason = "NotFound"
	ReasonInvalidSlot         Reason = "InvalidSlot"
	ReasonInvalidReferral     Reason = "InvalidReferral"
	ReasonMissingAttachment   Reason = "MissingAttachment"
	ReasonSlotFull            Reason = "SlotFull"
	ReasonSlotCancelled       Reason = "SlotCancelled"
	ReasonResultAlreadyExists Reason = "ResultAlreadyExists"
	ReasonPrescriptionInUse   Reason = "PrescriptionInUse"
	ReasonStoreUnavailable    Reason = "StoreUnavailable"
	ReasonInternal            Reason = "Internal"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Reason  Reason    `json:"reason"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// StatusCode maps the error code to an HTTP status for the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the operation unchanged.
// Only infrastructure unavailability qualifies; the facade itself never retries.
func (e *AppError) Retryable() bool {
	return e.Code == ErrUnavailable
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Reason:  ReasonNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(reason Reason, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Reason:  reason,
		Message: message,
	}
}

func NotAuthenticated(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Reason:  ReasonNotAuthenticated,
		Message: "not authenticated",
		Err:     err,
	}
}

func AccessDenied(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Reason:  ReasonAccessDenied,
		Message: message,
	}
}

func Conflict(reason Reason, message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Reason:  reason,
		Message: message,
	}
}

func Unavailable(err error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Reason:  ReasonStoreUnavailable,
		Message: "store unavailable",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Reason:  ReasonInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from err, or ErrInternal for unknown errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// ReasonOf extracts the Reason from err, or ReasonInternal for unknown errors.
func ReasonOf(err error) Reason {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ReasonInternal
}

// HasReason reports whether err carries the given reason.
func HasReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
