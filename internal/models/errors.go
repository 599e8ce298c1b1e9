package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a category of failure surfaced to API clients
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeCapacityUnavailable ErrorCode = "CAPACITY_UNAVAILABLE"
	ErrCodeInvalidDateRange    ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"
	ErrCodeAlreadyCancelled    ErrorCode = "ALREADY_CANCELLED"
	ErrCodeNotCancellable      ErrorCode = "NOT_CANCELLABLE"
	ErrCodeCancellationWindow  ErrorCode = "CANCELLATION_WINDOW_PASSED"
	ErrCodePayment             ErrorCode = "PAYMENT_ERROR"
	ErrCodeAmountMismatch      ErrorCode = "AMOUNT_MISMATCH"
	ErrCodeSignatureInvalid    ErrorCode = "SIGNATURE_INVALID"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error type services return across the API boundary.
// Handlers map Code to the HTTP status and the response envelope.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	Err     error     `json:"-"`
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

// AsAppError extracts an *AppError from an error chain, wrapping unknown
// errors as INTERNAL_ERROR so store failures never leak details to clients.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: ErrCodeInternal, Message: "an unexpected error occurred", Status: http.StatusInternalServerError, Err: err}
}

func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...), Status: http.StatusBadRequest}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: resource + " not found", Status: http.StatusNotFound}
}

func NewCapacityUnavailableError(date string) *AppError {
	return &AppError{
		Code:    ErrCodeCapacityUnavailable,
		Message: fmt.Sprintf("no rooms available for %s", date),
		Status:  http.StatusBadRequest,
	}
}

func NewInvalidDateRangeError(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidDateRange, Message: message, Status: http.StatusBadRequest}
}

func NewInvalidStateError(current BookingStatus, attempted string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("cannot %s a booking in status %s", attempted, current),
		Status:  http.StatusBadRequest,
	}
}

func NewAlreadyCancelledError() *AppError {
	return &AppError{Code: ErrCodeAlreadyCancelled, Message: "booking is already cancelled", Status: http.StatusBadRequest}
}

func NewNotCancellableError(current BookingStatus) *AppError {
	return &AppError{
		Code:    ErrCodeNotCancellable,
		Message: fmt.Sprintf("a %s booking cannot be cancelled", current),
		Status:  http.StatusBadRequest,
	}
}

func NewCancellationWindowError() *AppError {
	return &AppError{
		Code:    ErrCodeCancellationWindow,
		Message: "bookings cannot be cancelled less than 24 hours before check-in",
		Status:  http.StatusBadRequest,
	}
}

// NewPaymentError carries the processor-supplied code and message through to
// the caller. Processor failures are never retried server-side.
func NewPaymentError(processorCode, message string) *AppError {
	msg := message
	if processorCode != "" {
		msg = fmt.Sprintf("%s (%s)", message, processorCode)
	}
	return &AppError{Code: ErrCodePayment, Message: msg, Status: http.StatusBadRequest}
}

func NewAmountMismatchError(expected, got int64, currency string) *AppError {
	return &AppError{
		Code:    ErrCodeAmountMismatch,
		Message: fmt.Sprintf("amount %d does not match expected %d %s", got, expected, currency),
		Status:  http.StatusBadRequest,
	}
}

func NewSignatureInvalidError() *AppError {
	return &AppError{Code: ErrCodeSignatureInvalid, Message: "webhook signature verification failed", Status: http.StatusBadRequest}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "an unexpected error occurred", Status: http.StatusInternalServerError, Err: err}
}
