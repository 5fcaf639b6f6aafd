// Package protocol implements the request/response wire contract: envelope
// validation, the typed error taxonomy, line framing, and the typed
// per-tool parameter schemas. It is pure protocol logic with no knowledge
// of any specific tool.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Version is the supported protocol version literal. Requests carrying any
// other value are rejected with CodeInvalidRequest.
const Version = "2.0"

// Request is the inbound message envelope. ID is a string or a JSON number
// (decoded as float64); Validate enforces the type.
type Request struct {
	Version string          `json:"version"`
	Method  string          `json:"method"`
	Params  map[string]any  `json:"-"`
	ID      any             `json:"id"`
	raw     json.RawMessage // params as received, decoded by Validate
}

// UnmarshalJSON decodes the envelope, deferring params decoding to Validate
// so that a non-object params value surfaces as a validation failure rather
// than a parse error.
func (r *Request) UnmarshalJSON(data []byte) error {
	var tmp struct {
		Version string          `json:"version"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
		ID      any             `json:"id"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	r.Version = tmp.Version
	r.Method = tmp.Method
	r.ID = tmp.ID
	r.raw = tmp.Params
	return nil
}

// MarshalJSON encodes the envelope, used by clients and tests.
func (r *Request) MarshalJSON() ([]byte, error) {
	tmp := struct {
		Version string         `json:"version"`
		Method  string         `json:"method"`
		Params  map[string]any `json:"params,omitempty"`
		ID      any            `json:"id"`
	}{r.Version, r.Method, r.Params, r.ID}
	return json.Marshal(tmp)
}

// Response is the outbound message envelope. Exactly one of Result/Error
// is present.
type Response struct {
	Version string       `json:"version"`
	ID      any          `json:"id"`
	Result  any          `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject is the wire form of a typed protocol error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Validate checks the request against the fixed envelope shape and decodes
// params. Any violation yields a CodeInvalidRequest error whose data lists
// the individual validation issues.
func (r *Request) Validate() *Error {
	var issues []string

	if r.Version != Version {
		issues = append(issues, fmt.Sprintf("version must be %q, got %q", Version, r.Version))
	}
	if strings.TrimSpace(r.Method) == "" {
		issues = append(issues, "method must be a non-empty string")
	}
	switch r.ID.(type) {
	case string, float64:
	default:
		issues = append(issues, fmt.Sprintf("id must be a string or number, got %T", r.ID))
	}

	if len(r.raw) > 0 && !bytes.Equal(r.raw, []byte("null")) {
		params := make(map[string]any)
		if err := json.Unmarshal(r.raw, &params); err != nil {
			issues = append(issues, "params must be a string-keyed map")
		} else {
			r.Params = params
		}
	}

	if len(issues) > 0 {
		return NewError(CodeInvalidRequest, "invalid request").
			WithData(map[string]any{"validation": issues})
	}
	return nil
}

// CreateSuccessResponse builds a result response correlated to id.
func CreateSuccessResponse(result any, id any) *Response {
	return &Response{
		Version: Version,
		ID:      id,
		Result:  result,
	}
}

// CreateErrorResponse builds an error response correlated to id.
func CreateErrorResponse(code int, message string, id any, data any) *Response {
	return &Response{
		Version: Version,
		ID:      id,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// ErrorToResponse maps an error to a response. Typed protocol errors keep
// their code, message, and data; any other error becomes a generic internal
// error carrying the error's message, or a fixed fallback when empty.
func ErrorToResponse(err error, id any) *Response {
	var perr *Error
	if errors.As(err, &perr) {
		return CreateErrorResponse(perr.Code, perr.Message, id, perr.Data)
	}

	message := internalErrorMessage
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		message = err.Error()
	}
	return CreateErrorResponse(CodeInternalError, message, id, nil)
}
