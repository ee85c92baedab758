// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package errors provides the application error type used across services.
// Service-layer code wraps failures in an AppError carrying a machine code,
// a human message, and the HTTP status the API layer should respond with.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeInternal      = "INTERNAL"
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeConflict      = "CONFLICT"
	CodeTimeout       = "TIMEOUT"
)

// Sentinel errors for errors.Is checks in repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyExist = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// AppError is the application error type.
type AppError struct {
	Code       string
	Message    string
	Err        error
	HTTPStatus int
	Details    map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a details map to the error and returns it.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithDetail attaches a single detail key/value to the error and returns it.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithHTTPStatus overrides the HTTP status and returns the error.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// New creates a new AppError with the default 500 status.
func New(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithStatus creates a new AppError with an explicit HTTP status.
func NewWithStatus(code, message string, status int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap wraps an error in an AppError with the default 500 status.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Err:        err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// WrapWithStatus wraps an error in an AppError with an explicit HTTP status.
func WrapWithStatus(err error, code, message string, status int) *AppError {
	ae := Wrap(err, code, message)
	ae.HTTPStatus = status
	return ae
}

// ============================================================================
// Common constructors
// ============================================================================

// NotFound returns a 404 error for a missing resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		Err:        ErrNotFound,
		HTTPStatus: http.StatusNotFound,
	}
}

// AlreadyExists returns a 409 error for a duplicate resource.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code:       CodeAlreadyExists,
		Message:    resource + " already exists",
		Err:        ErrAlreadyExist,
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidInput returns a 400 error for malformed input.
func InvalidInput(message string) *AppError {
	return NewWithStatus(CodeBadRequest, message, http.StatusBadRequest)
}

// NewValidationError returns a 400 error for a failed business validation.
func NewValidationError(message string) *AppError {
	return NewWithStatus(CodeValidation, message, http.StatusBadRequest)
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	ae := NewWithStatus(CodeUnauthorized, message, http.StatusUnauthorized)
	ae.Err = ErrUnauthorized
	return ae
}

// Forbidden returns a 403 error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	ae := NewWithStatus(CodeForbidden, message, http.StatusForbidden)
	ae.Err = ErrForbidden
	return ae
}

// Internal returns a 500 error wrapping the cause.
func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "internal error")
}

// ============================================================================
// Inspection helpers
// ============================================================================

// GetAppError extracts an *AppError from an error chain. Plain errors are
// wrapped as internal errors so callers always get a usable AppError.
func GetAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// HTTPStatusCode returns the HTTP status for an error chain. Sentinel errors
// map to their conventional statuses; everything else is a 500.
func HTTPStatusCode(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.HTTPStatus
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExist):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
