// Package domainerrors carries coded errors that survive wrapping so transport
// layers can translate them into responses without knowing the origin.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for translation at the boundary.
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeInvalidInput  Code = "invalid_input"
	CodeValidation    Code = "validation_error"
	CodeUnauthorized  Code = "unauthorized"
	CodeNotFound      Code = "not_found"
	CodeUnavailable   Code = "service_unavailable"
	CodeInternal      Code = "internal_error"
	CodeTooLarge      Code = "request_too_large"
	CodeMethodInvalid Code = "method_not_allowed"
)

// Error is a coded domain error. Message is safe to return to clients unless
// the code is CodeInternal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
