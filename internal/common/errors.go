// Package common holds the HTTP plumbing shared by every handler: the error
// type, the JSON response shape and request decoding.
package common

import (
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// WithDetails attaches details rendered in the error body.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// BadRequest is a malformed request.
func BadRequest(message string, err error) *AppError {
	return NewAppError("bad_request", message, http.StatusBadRequest, err)
}

// NotFound is a missing resource.
func NotFound(message string, err error) *AppError {
	return NewAppError("not_found", message, http.StatusNotFound, err)
}

// Unprocessable is a well-formed request that failed validation.
func Unprocessable(message string, details any) *AppError {
	return NewAppError("validation_failed", message, http.StatusUnprocessableEntity, nil).WithDetails(details)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
