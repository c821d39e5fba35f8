package rpc

import (
	"errors"

	"github.com/cexll/kanban-mcp/internal/capability"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeUnavailable is used when a method depends on an integration that
	// was not configured.
	CodeUnavailable = -32000
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func invalidParams(err error) *Error {
	return &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: err.Error()}
}

// fromServiceError classifies an error returned by a service call.
func fromServiceError(err error) *Error {
	if errors.Is(err, capability.ErrUnavailable) {
		return newError(CodeUnavailable, err.Error())
	}
	return newError(CodeInternalError, err.Error())
}
