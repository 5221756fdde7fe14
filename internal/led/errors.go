package led

import (
	"errors"
	"fmt"
)

// Error codes for board operations.
const (
	ErrCodeLEDNotFound       = "LED_NOT_FOUND"
	ErrCodeAnimationNotFound = "ANIMATION_NOT_FOUND"
	ErrCodeInvalidPin        = "INVALID_PIN"
	ErrCodeDuplicateLED      = "DUPLICATE_LED"
)

// Error represents a board error with a code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is, or wraps, an *Error with code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
