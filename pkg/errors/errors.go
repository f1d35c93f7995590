package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class in the pipeline taxonomy.
type Code string

const (
	CodeConnection Code = "CONNECTION_ERROR"
	CodeDecode     Code = "DECODE_ERROR"
	CodeSchema     Code = "SCHEMA_VIOLATION"
	CodeCompile    Code = "COMPILE_ERROR"
	CodeAction     Code = "ACTION_ERROR"
)

type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the pipeline may skip the failing message and
// keep running. Schema violations are recoverable here; strict-mode policy is
// decided by the caller, not by the error.
func (e *Error) Recoverable() bool {
	switch e.Code {
	case CodeDecode, CodeSchema:
		return true
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	}
	err.Details[key] = value
	return &err
}

// CodeOf extracts the taxonomy code from err, or "" if err does not carry one.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether err must terminate the pipeline.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return !e.Recoverable()
	}
	// Unclassified errors terminate rather than loop silently.
	return true
}

func Connection(endpoint string, attempts int, cause error) *Error {
	return New(CodeConnection, fmt.Sprintf("lost connection to %q after %d failed attempts", endpoint, attempts)).
		WithDetail("endpoint", endpoint).
		WithDetail("attempts", attempts).
		WithCause(cause)
}

func Decode(message string, cause error) *Error {
	return New(CodeDecode, message).WithCause(cause)
}

func Schema(rule, message string) *Error {
	return New(CodeSchema, fmt.Sprintf("%s: %s", rule, message)).WithDetail("rule", rule)
}

func Compile(message string) *Error {
	return New(CodeCompile, message)
}

func Action(name string, cause error) *Error {
	return New(CodeAction, fmt.Sprintf("action %q failed", name)).
		WithDetail("action", name).
		WithCause(cause)
}
