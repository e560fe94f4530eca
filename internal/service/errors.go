package service

import (
	"errors"
	"fmt"
)

// ErrorCode is the error taxonomy shared by every operation.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeInternal          ErrorCode = "INTERNAL"
)

// AppError is a domain failure the transport layer can render.
// Details carries structured context, e.g. the product that ran out.
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so errors.Is(err, ErrConflict) works for any conflict.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrValidation        = &AppError{Code: CodeValidation}
	ErrConflict          = &AppError{Code: CodeConflict}
	ErrInsufficientStock = &AppError{Code: CodeInsufficientStock}
	ErrForbidden         = &AppError{Code: CodeForbidden}
	ErrNotFound          = &AppError{Code: CodeNotFound}
)

func validationError(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

func conflictError(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg}
}

func forbiddenError(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg}
}

func notFoundError(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg}
}

// CodeOf returns the taxonomy code of err, INTERNAL when err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
