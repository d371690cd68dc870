// Package intercept implements the request/response interceptor pipeline:
// an ordered chain of transforms that sits between the stream handler and a
// backend, with short-circuit semantics on the request side.
package intercept

import (
	"encoding/json"
	"errors"

	"mcpadre.dev/mcpadre/internal/rpcstream"
)

// JSONRPCError is the sentinel error type an interceptor returns to produce
// a specific error response rather than a generic internal error.
type JSONRPCError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *JSONRPCError) Error() string { return e.Message }

// Interceptor is a pair of request/response transforms. OnRequest may return
// a non-nil response to short-circuit: the backend and any remaining
// request-side interceptors are skipped, but response-side interceptors
// whose OnRequest already ran still run over the short-circuit response.
// Either method may be nil to mean "pass through unchanged".
type Interceptor struct {
	Name      string
	OnRequest func(req *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error)
	OnResponse func(res *rpcstream.Envelope) (*rpcstream.Envelope, error)
}

// Pipeline is an ordered chain of interceptors.
type Pipeline struct {
	chain []Interceptor
}

// New builds a Pipeline from interceptors in declaration order.
func New(interceptors ...Interceptor) *Pipeline {
	return &Pipeline{chain: interceptors}
}

// Dispatch sends req through the request-side chain, to send if no
// interceptor short-circuits, and then unwinds the response through
// response-side interceptors in reverse declaration order — but only those
// whose request-side stage actually ran.
func (p *Pipeline) Dispatch(req *rpcstream.Envelope, send func(*rpcstream.Envelope) (*rpcstream.Envelope, error)) (*rpcstream.Envelope, error) {
	ran := make([]bool, len(p.chain))
	current := req
	var short *rpcstream.Envelope

	for i, ic := range p.chain {
		ran[i] = true
		if ic.OnRequest == nil {
			continue
		}
		next, resp, err := ic.OnRequest(current)
		if err != nil {
			return errorResponse(req, err), nil
		}
		if resp != nil {
			short = resp
			break
		}
		current = next
	}

	var result *rpcstream.Envelope
	var err error
	if short != nil {
		result = short
	} else {
		result, err = send(current)
		if err != nil {
			return errorResponse(req, err), nil
		}
	}

	for i := len(p.chain) - 1; i >= 0; i-- {
		if !ran[i] || p.chain[i].OnResponse == nil {
			continue
		}
		result, err = p.chain[i].OnResponse(result)
		if err != nil {
			return errorResponse(req, err), nil
		}
	}

	return result, nil
}

// errorResponse maps an interceptor error to a JSON-RPC error response
// carrying the original request's id.
func errorResponse(req *rpcstream.Envelope, err error) *rpcstream.Envelope {
	var jre *JSONRPCError
	if errors.As(err, &jre) {
		return &rpcstream.Envelope{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcstream.Error{Code: jre.Code, Message: jre.Message, Data: jre.Data},
		}
	}
	return &rpcstream.Envelope{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &rpcstream.Error{Code: rpcstream.CodeInternalError, Message: err.Error()},
	}
}
