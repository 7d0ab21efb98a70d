// Package envelope builds the uniform success/error responses returned for
// every request and redacts sensitive fields from error details.
package envelope

import (
	"encoding/json"
	"math"
)

// Version is the protocol version stamped on every envelope.
const Version = "0.1"

// Error codes produced by the dispatch core.
const (
	CodeParseError        = -32700
	CodeInvalidRequest    = -32600
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInputInvalid      = 40001
	CodeStateForbidden    = 40302
	CodeTimeout           = 40800
	CodeIllegalTransition = 40900
	CodeArtifactLocked    = 40901
	CodeGlobalRateLimit   = 42900
	CodeMethodRateLimit   = 42901
	CodeInternal          = 50000
	CodeOutputInvalid     = 50001
)

// ErrorDetail is the error half of an envelope.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Response is the wire envelope. ID is always serialized, as null when the
// request carried none. Exactly one of Result and Error is set.
type Response struct {
	ID      any            `json:"id"`
	Version string         `json:"version"`
	Result  any            `json:"result,omitempty"`
	Error   *ErrorDetail   `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Success wraps a handler result. A nil result is sent as an empty object so
// the envelope still carries a result key.
func Success(id, result any, meta map[string]any) Response {
	if result == nil {
		result = map[string]any{}
	}
	return Response{ID: id, Version: Version, Result: result, Meta: meta}
}

// Error builds an error envelope. Map-shaped details are redacted.
func Error(id any, code int, message string, details any, meta map[string]any) Response {
	return Response{
		ID:      id,
		Version: Version,
		Error:   NewError(code, message, details),
		Meta:    meta,
	}
}

// NewError builds an ErrorDetail with redacted details.
func NewError(code int, message string, details any) *ErrorDetail {
	if m, ok := details.(map[string]any); ok {
		details = Redact(m)
	}
	return &ErrorDetail{Code: code, Message: message, Details: details}
}

// Error implements the error interface so details can travel as Go errors.
func (e *ErrorDetail) Error() string {
	return e.Message
}

// AsMap renders the detail in the structured {error:{...}} shape handlers
// use to report their own failures.
func (e *ErrorDetail) AsMap() map[string]any {
	inner := map[string]any{"code": e.Code, "message": e.Message}
	if e.Details != nil {
		inner["details"] = e.Details
	}
	return map[string]any{"error": inner}
}

// FromResult recognizes a structured {error:{code,message,details?}} result.
// The code may be any JSON number representation.
func FromResult(result any) (*ErrorDetail, bool) {
	m, ok := result.(map[string]any)
	if !ok {
		return nil, false
	}
	inner, ok := m["error"].(map[string]any)
	if !ok {
		return nil, false
	}
	code, ok := toInt(inner["code"])
	if !ok {
		return nil, false
	}
	message, _ := inner["message"].(string)
	return &ErrorDetail{Code: code, Message: message, Details: inner["details"]}, true
}

// toInt accepts integral numbers only; 400.5 is not a code.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
