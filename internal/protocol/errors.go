package protocol

import "fmt"

// Standard remote-call error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Domain error codes, kept in the 400-599 band so callers can distinguish
// "your request was malformed" from "the referenced entity does not exist".
const (
	CodeInvalidFilter         = 400
	CodeTaskNotFound          = 404
	CodeTaskAlreadyInProgress = 409
	CodeInternalServerError   = 500
	CodeTaskQueueUnavailable  = 503
)

// internalErrorMessage is the fallback when an error carries no message.
const internalErrorMessage = "Internal server error"

// Error is a typed protocol error. Handlers raise it to control the code,
// message, and structured data that reach the wire; anything else is
// converted to a generic internal error by ErrorToResponse.
type Error struct {
	Code    int
	Message string
	Data    any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

// NewError creates a typed protocol error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithData attaches structured detail to the error.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}
