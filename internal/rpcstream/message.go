// Package rpcstream implements JSON-RPC stream handler: newline-framed
// JSON-RPC 2.0 over stdio, with correlated request/response dispatch. It is
// hand-rolled against encoding/json rather than a ready-made MCP client/server
// library, because mcpadre needs a generic, backend-agnostic JSON-RPC 2.0
// envelope it can forward verbatim to any of the five backend kinds,
// including a host's own initialize call — not a library whose types assume
// it owns the MCP method dispatch itself.
package rpcstream

import "encoding/json"

// ID is a JSON-RPC request id: string, number, or null. It preserves the
// exact wire representation across a parse/serialize round trip instead of
// normalizing numbers to float64.
type ID struct {
	raw json.RawMessage
}

// NewStringID builds an ID from a string value.
func NewStringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID{raw: b}
}

// NewNumberID builds an ID from an integer value.
func NewNumberID(n int64) ID {
	b, _ := json.Marshal(n)
	return ID{raw: b}
}

// IsNil reports whether the id is absent or JSON null — the "no id" case
// that marks a notification.
func (id ID) IsNil() bool {
	return len(id.raw) == 0 || string(id.raw) == "null"
}

// Key returns a string usable as a map key for correlating requests and
// responses by id.
func (id ID) Key() string { return string(id.raw) }

func (id ID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	id.raw = append([]byte(nil), data...)
	return nil
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Envelope is the union of request, notification, and response shapes:
// exactly one of (Method) or (Result/Error) is populated for any wire
// message mcpadre forwards.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *ID             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsRequest reports whether e is a request (has a method and a non-null id).
func (e *Envelope) IsRequest() bool {
	return e.Method != "" && e.ID != nil && !e.ID.IsNil()
}

// IsNotification reports whether e is a notification (has a method, no id).
func (e *Envelope) IsNotification() bool {
	return e.Method != "" && (e.ID == nil || e.ID.IsNil())
}

// IsResponse reports whether e carries a result or an error rather than a
// method — i.e. it is a response to a previously sent request.
func (e *Envelope) IsResponse() bool {
	return e.Method == "" && (e.Result != nil || e.Error != nil)
}

// NewErrorResponse builds a JSON-RPC error response envelope for id (nil
// when the failing message couldn't be correlated to an id at all, as in
// the -32700 Parse error case).
func NewErrorResponse(id *ID, code int, message string) *Envelope {
	return &Envelope{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
}

// NewResultResponse builds a successful response envelope.
func NewResultResponse(id *ID, result json.RawMessage) *Envelope {
	return &Envelope{JSONRPC: "2.0", ID: id, Result: result}
}

// SyntheticNullResult builds the synthetic {result:null} response used for
// a notification dispatched to a backend whose transport only speaks
// request/response (HTTP one-shot POSTs, a stdio backend expecting
// acknowledgement).
func SyntheticNullResult(id *ID) *Envelope {
	return NewResultResponse(id, json.RawMessage("null"))
}
