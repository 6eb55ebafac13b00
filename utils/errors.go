package utils

import "fmt"

// NotFoundError signals that a referenced entity (user, appointment, wallet,
// due) does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NotFound builds a NotFoundError with a formatted message.
func NotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// BadRequestError signals a violated precondition: past date, closed day,
// unavailable or taken slot, capacity or funds exceeded, missing field,
// illegal state transition.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// BadRequest builds a BadRequestError with a formatted message.
func BadRequest(format string, args ...interface{}) *BadRequestError {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}
