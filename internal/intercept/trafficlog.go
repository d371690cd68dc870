package intercept

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"mcpadre.dev/mcpadre/internal/rpcstream"
)

// trafficEntry is one line of the per-server JSONL traffic log, per §6.4's
// persisted-state contract: {ts, direction:"req"|"res", msg: <raw JSON-RPC>}.
type trafficEntry struct {
	Timestamp string          `json:"ts"`
	Direction string          `json:"direction"`
	Message   json.RawMessage `json:"msg"`
}

// NewTrafficLogger returns the built-in traffic-logging interceptor: every
// request and response is JSON-serialized as one line to w, grounded on
// internal/logs.Writer's append-only file-write pattern. The interceptor
// never mutates req or res; it only observes.
func NewTrafficLogger(w io.Writer) Interceptor {
	var mu sync.Mutex
	write := func(direction string, env *rpcstream.Envelope) {
		b, err := json.Marshal(env)
		if err != nil {
			return
		}
		entry, err := json.Marshal(trafficEntry{
			Timestamp: time.Now().Format(time.RFC3339Nano),
			Direction: direction,
			Message:   b,
		})
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = w.Write(append(entry, '\n'))
	}

	return Interceptor{
		Name: "traffic-logger",
		OnRequest: func(req *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			write("req", req)
			return req, nil, nil
		},
		OnResponse: func(res *rpcstream.Envelope) (*rpcstream.Envelope, error) {
			write("res", res)
			return res, nil
		},
	}
}
