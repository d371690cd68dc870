// Package backend implements the five backend clients: shell, python,
// node, container, and http. This is a flat capability set — one Backend
// implementation per transport, chosen by matching the server record's
// variant — rather than a class hierarchy with inheritance.
package backend

import (
	"context"

	"mcpadre.dev/mcpadre/internal/rpcstream"
)

// Backend is the common contract every client implements.
type Backend interface {
	// Send delivers one JSON-RPC message. For a request (non-nil id) it
	// returns the correlated response. For a notification it returns a
	// synthetic result:null response (or nil, nil if the transport simply
	// drops notifications) and never blocks waiting for a reply.
	Send(ctx context.Context, req *rpcstream.Envelope) (*rpcstream.Envelope, error)

	// Stop releases every resource the client owns — child process, pipes,
	// HTTP connections — on every path: success, error, or cancellation.
	// Stop is idempotent.
	Stop(ctx context.Context) error

	// ClientType names the transport, used for logging.
	ClientType() string
}
