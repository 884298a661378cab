// Package types defines the wire envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful payloads under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// Success builds the envelope for a payload. A nil payload serializes as
// {"data":null}, which clients treat as "done, nothing to return".
func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// APIError is the public face of a failed request: a stable machine code, a
// human-readable message, and optional structured details (field-level
// validation failures, mostly).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Failure builds the envelope for an error response.
func Failure(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
