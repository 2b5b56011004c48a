// Package apperr carries typed application errors between services and the
// HTTP layer. An AppError has a code that maps to a transport status, a
// user-facing message and, for validation failures, per-field messages.
package apperr

import (
	"errors"
	"fmt"
	"maps"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
)

const (
	CodeInternal        = "INTERNAL"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
)

// AppError is an error with a stable code and a message safe to show to users.
type AppError struct {
	Code    string
	Message string
	Fields  map[string]string
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

// New creates an AppError without a cause.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around err. A nil err yields nil.
func Wrap(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// Validation builds an INVALID_ARGUMENT error. The message is the first field
// message in fields when message is empty.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeInvalidArgument,
		Message: message,
		Fields:  maps.Clone(fields),
		Err:     common.ErrorValidation,
	}
}

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Err: common.ErrorNotFound}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Err: common.ErrorAlreadyExists}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message, Err: common.ErrorUnauthorized}
}

// From classifies any error. AppErrors are returned as is; known sentinels are
// given their code; anything else becomes INTERNAL with a generic message.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return &AppError{Code: CodeNotFound, Message: "Not found", Err: err}
	case errors.Is(err, common.ErrorAlreadyExists):
		return &AppError{Code: CodeConflict, Message: "Already exists", Err: err}
	case errors.Is(err, common.ErrorValidation):
		return &AppError{Code: CodeInvalidArgument, Message: "Invalid request", Err: err}
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInactiveUser),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrInvalidCredentials):
		return &AppError{Code: CodeUnauthenticated, Message: "Unauthorized", Err: err}
	}

	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}
