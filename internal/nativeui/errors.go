package nativeui

import (
	"errors"
	"fmt"
)

// Code classifies bridge failures for the wire protocol. Every error that
// crosses the router boundary carries one; all of them are recoverable and
// none are fatal to the process.
type Code string

const (
	// CodeInvalidMessage marks malformed or unparseable wire payloads.
	CodeInvalidMessage Code = "InvalidMessage"
	// CodeUnknownAction marks valid JSON with an unrecognized domain or action.
	CodeUnknownAction Code = "UnknownAction"
	// CodeDuplicateID marks a create request for an id that is already live.
	CodeDuplicateID Code = "DuplicateId"
	// CodeNotFound marks an operation on a nonexistent component id.
	CodeNotFound Code = "NotFound"
	// CodeInvalidState marks a data-mutating call on a destroyed component.
	CodeInvalidState Code = "InvalidState"
	// CodeMissingCollaborator marks the absence of a window to host content.
	CodeMissingCollaborator Code = "MissingCollaborator"
)

// Error is a coded bridge error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Errf builds a coded error with a formatted message.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err. Uncoded errors (programming mistakes
// leaking through, marshaling failures) are reported as InvalidMessage so
// the wire contract of "always a coded error payload" holds.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInvalidMessage
}
