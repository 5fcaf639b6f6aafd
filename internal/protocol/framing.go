package protocol

import "encoding/json"

// ParseMessage parses one transport message as a single JSON request. A
// malformed JSON value yields a CodeParseError; the envelope itself is
// checked separately by Request.Validate.
func ParseMessage(data []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewError(CodeParseError, "parse error").
			WithData(map[string]any{"detail": err.Error()})
	}
	return &req, nil
}

// FormatResponse encodes one response as JSON terminated by a single
// newline, the framing unit of the line-delimited transport.
func FormatResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
