package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Error codes for typed operation outcomes.
const (
	CodeNetworkUnavailable    = "NETWORK_UNAVAILABLE"
	CodeRemoteOperationFailed = "REMOTE_OPERATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeAuthRequired          = "AUTH_REQUIRED"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeOfflineDeleteRejected = "OFFLINE_DELETE_REJECTED"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
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

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Predefined error constructors

func NewNetworkUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeNetworkUnavailable,
		Message: "No internet connection. Changes will sync when you're back online.",
		Err:     err,
	}
}

func NewRemoteOperationFailedError(err error) *AppError {
	return &AppError{
		Code:    CodeRemoteOperationFailed,
		Message: "Remote operation failed",
		Err:     err,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewAuthRequiredError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthRequired,
		Message: message,
	}
}

func NewValidationError(field, reason string) *AppError {
	return &AppError{
		Code:    CodeValidationFailed,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}

func NewOfflineDeleteRejectedError(resource string) *AppError {
	return &AppError{
		Code:    CodeOfflineDeleteRejected,
		Message: fmt.Sprintf("Cannot delete %s while offline. Please check your internet connection.", resource),
	}
}

// IsNetworkError reports whether err looks like a connectivity failure
// (unresolvable host, broken pipe, timeout) rather than a server-side
// rejection.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// WrapRemoteError maps a failed remote call onto the typed error surface:
// connectivity failures become NETWORK_UNAVAILABLE, AppErrors pass through,
// everything else becomes REMOTE_OPERATION_FAILED with the cause attached.
func WrapRemoteError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsNetworkError(err) {
		return NewNetworkUnavailableError(err)
	}
	return NewRemoteOperationFailedError(err)
}
