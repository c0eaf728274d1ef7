package api

import "encoding/json"

// HeaderAuthorization carries the caller credential on every call.
const HeaderAuthorization = "Authorization"

// CallEnvelope is one procedure invocation as seen by the dispatcher.
type CallEnvelope struct {
	Procedure string            `json:"procedure"`
	Input     json.RawMessage   `json:"input"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// MaxBatchCalls is the most calls one POST /rpc request may carry.
const MaxBatchCalls = 64

// BatchCall is one element of a POST /rpc request body.
type BatchCall struct {
	ID        string          `json:"id"`
	Procedure string          `json:"procedure"`
	Input     json.RawMessage `json:"input"`
}

// BatchResult is one element of a POST /rpc response body. Exactly one of
// Result and Error is set.
type BatchResult struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// CallResponse is the body of a POST /rpc/:procedure response.
type CallResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Procedure string `json:"procedure,omitempty"`
	Field     string `json:"field,omitempty"`
}

// ProcedureInfo is an entry of the GET /rpc catalogue.
type ProcedureInfo struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Input Shape  `json:"input"`
}

// Error codes returned in ErrorBody.Code.
const (
	CodeParseError    = "PARSE_ERROR"
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeTooMany       = "TOO_MANY_REQUESTS"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)
