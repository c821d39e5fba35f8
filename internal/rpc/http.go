package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

const maxBodyBytes = 10 << 20

// Request is the POST /rpc body.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     json.RawMessage `json:"id,omitempty"`
}

// Response is the POST /rpc reply. Exactly one of Result and Error is set.
type Response struct {
	Result any             `json:"result"`
	Error  *Error          `json:"error"`
	ID     json.RawMessage `json:"id"`
}

// Handler serves JSON-RPC calls over HTTP.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler creates a handler for dispatcher.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// ServeHTTP implements http.Handler. Protocol errors are reported in the body
// with status 200, matching JSON-RPC over HTTP conventions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeResponse(w, Response{Error: &Error{Code: CodeParseError, Message: "Parse error", Data: err.Error()}})
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeResponse(w, Response{Error: newError(CodeInvalidRequest, "Invalid request: method is required"), ID: req.ID})
		return
	}
	if p := bytes.TrimSpace(req.Params); len(p) > 0 && p[0] != '{' && !bytes.Equal(p, []byte("null")) {
		writeResponse(w, Response{Error: newError(CodeInvalidRequest, "Invalid request: params must be an object"), ID: req.ID})
		return
	}

	result, rpcErr := h.dispatcher.Dispatch(r.Context(), req.Method, req.Params)
	if rpcErr != nil {
		writeResponse(w, Response{Error: rpcErr, ID: req.ID})
		return
	}
	writeResponse(w, Response{Result: result, ID: req.ID})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
