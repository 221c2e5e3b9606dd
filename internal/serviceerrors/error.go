package serviceerrors

import (
	"errors"

	"github.com/eval-hub/eval-hub-adapters/internal/messages"
)

type ServiceError struct {
	messageCode   *messages.MessageCode
	messageParams []any
	cause         error
}

func (e *ServiceError) Error() string {
	return messages.GetErrorMessage(e.messageCode, e.messageParams...)
}

func (e *ServiceError) MessageCode() *messages.MessageCode {
	return e.messageCode
}

func (e *ServiceError) MessageParams() []any {
	return e.messageParams
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

func NewServiceError(messageCode *messages.MessageCode, messageParams ...any) *ServiceError {
	return &ServiceError{
		messageCode:   messageCode,
		messageParams: messageParams,
	}
}

// WithCause keeps the underlying error reachable through errors.Is/As.
func (e *ServiceError) WithCause(err error) *ServiceError {
	return &ServiceError{
		messageCode:   e.messageCode,
		messageParams: e.messageParams,
		cause:         err,
	}
}

// HasMessageCode reports whether err is, or wraps, a service error with the given code.
func HasMessageCode(err error, messageCode *messages.MessageCode) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.messageCode == messageCode
	}
	return false
}

// Wrap converts any error into a service error, leaving service errors untouched.
func Wrap(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return &ServiceError{
		messageCode:   messages.UnknownError,
		messageParams: []any{"Error", err.Error()},
		cause:         err,
	}
}
