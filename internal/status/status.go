// Package status defines the error taxonomy shared by every generation,
// enhancement and animation component.
//
// Components never let raw errors escape to their callers at the item level.
// They convert failures into a *Error carrying a Code so that batch runners
// can record the failure and move on to the next item.
package status

import (
	"errors"
	"fmt"
)

// Code categorizes the outcome of an operation.
type Code string

const (
	// CodeSuccess indicates the operation completed.
	CodeSuccess Code = "success"
	// CodeInvalidInput covers bad arguments: empty prompts, too few prompts, bad sizes.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidPreset indicates an unknown enhancement preset name.
	CodeInvalidPreset Code = "invalid_preset"
	// CodeMissingInput indicates an input file that is absent or cannot be decoded.
	CodeMissingInput Code = "missing_input"
	// CodeUpstreamUnavailable indicates the inference service failed. Recovered by the sketch fallback.
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	// CodeValidationFailed indicates a frame set that is inconsistent or incomplete.
	CodeValidationFailed Code = "validation_failed"
	// CodeExternalToolFailed indicates the external editor failed or timed out. Recovered in-process.
	CodeExternalToolFailed Code = "external_tool_failed"
	// CodeWriteFailed indicates an output file could not be written.
	CodeWriteFailed Code = "write_failed"
)

// Terminal reports whether a failure with this code ends the item being processed.
// Upstream and external tool failures degrade to a simpler code path instead.
func (c Code) Terminal() bool {
	switch c {
	case CodeInvalidInput, CodeInvalidPreset, CodeMissingInput, CodeValidationFailed, CodeWriteFailed:
		return true
	}
	return false
}

// Error is a failure tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err. A nil error maps to CodeSuccess and an
// error with no *Error in its chain maps to "".
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
