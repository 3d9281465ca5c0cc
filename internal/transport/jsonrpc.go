package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const jsonrpcVersion = "2.0"

// MaxRequestBytes bounds a single /rpc body.
const MaxRequestBytes = 1 << 20

// Wire error codes. ErrDomain is the implementation-defined slot; the
// handler's own code travels in Error.Data.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603

	ErrDomain = -32000
)

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// Request is one call envelope. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// IsNotification reports whether the caller expects no reply.
func (r Request) IsNotification() bool { return r.ID == nil }

// Response is the reply envelope; exactly one of Result or Error is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is the error member of a Response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest decodes one envelope from body, reading at most
// MaxRequestBytes. Trailing content after the object is rejected.
func ParseRequest(body io.Reader) (Request, error) {
	dec := json.NewDecoder(io.LimitReader(body, MaxRequestBytes))
	var req Request
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if dec.More() {
		return Request{}, fmt.Errorf("%w: trailing data after request", errParse)
	}
	switch {
	case req.JSONRPC != jsonrpcVersion:
		return Request{}, fmt.Errorf("%w: jsonrpc must be %q", errInvalidRequest, jsonrpcVersion)
	case req.Method == "":
		return Request{}, fmt.Errorf("%w: method is required", errInvalidRequest)
	}
	return req, nil
}

// parseErrorCode picks the wire code for a ParseRequest failure.
func parseErrorCode(err error) int {
	if errors.Is(err, errParse) {
		return ErrParseCode
	}
	return ErrInvalidReq
}

// WriteResult writes a success reply.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, Response{JSONRPC: jsonrpcVersion, Result: result, ID: id})
}

// WriteError writes an error reply.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, Response{
		JSONRPC: jsonrpcVersion,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

// WriteDomainError writes a handler failure under ErrDomain with the
// coded error itself as data.
func WriteDomainError(w http.ResponseWriter, id any, err CodedError) {
	WriteError(w, id, ErrDomain, err.Error(), err)
}

func writeJSON(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
