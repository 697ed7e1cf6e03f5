package cipher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytget/ytinfo/errs"
)

// Error codes
const (
	ErrCodeEmptyScript        = "EMPTY_SCRIPT"
	ErrCodeEntryNotFound      = "ENTRY_FUNCTION_NOT_FOUND"
	ErrCodeHelperNotFound     = "HELPER_OBJECT_NOT_FOUND"
	ErrCodeMethodNotFound     = "HELPER_METHOD_NOT_FOUND"
	ErrCodeMethodUnrecognized = "HELPER_METHOD_UNRECOGNIZED"
	ErrCodeMissingArgument    = "MISSING_ARGUMENT"
)

// Error represents a structured derivation error with code and details.
// Every Error matches errs.ErrDecodeUnavailable.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is errs.ErrDecodeUnavailable.
func (e *Error) Is(target error) bool {
	return target == errs.ErrDecodeUnavailable
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// Code returns the derivation error code carried by err, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether a structural element of the script could not be located.
func IsNotFound(err error) bool {
	switch Code(err) {
	case ErrCodeEntryNotFound, ErrCodeHelperNotFound, ErrCodeMethodNotFound:
		return true
	}
	return false
}

// IsUnrecognized reports whether a helper method had an unknown shape.
func IsUnrecognized(err error) bool {
	return Code(err) == ErrCodeMethodUnrecognized
}
