package intercept

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpadre.dev/mcpadre/internal/rpcstream"
)

func req(id int64, method string) *rpcstream.Envelope {
	n := rpcstream.NewNumberID(id)
	return &rpcstream.Envelope{JSONRPC: "2.0", ID: &n, Method: method}
}

func TestDispatchPassesThroughWhenNoInterceptors(t *testing.T) {
	p := New()
	r := req(1, "ping")
	got, err := p.Dispatch(r, func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		return rpcstream.NewResultResponse(e.ID, []byte(`"pong"`)), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`"pong"`), []byte(got.Result))
}

func TestDispatchRunsRequestAndResponseStages(t *testing.T) {
	var order []string
	a := Interceptor{
		Name: "a",
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			order = append(order, "a-req")
			return e, nil, nil
		},
		OnResponse: func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
			order = append(order, "a-res")
			return e, nil
		},
	}
	b := Interceptor{
		Name: "b",
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			order = append(order, "b-req")
			return e, nil, nil
		},
		OnResponse: func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
			order = append(order, "b-res")
			return e, nil
		},
	}
	p := New(a, b)
	_, err := p.Dispatch(req(1, "m"), func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		order = append(order, "backend")
		return rpcstream.NewResultResponse(e.ID, nil), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-req", "b-req", "backend", "b-res", "a-res"}, order)
}

func TestDispatchShortCircuitSkipsBackendAndLaterRequestStages(t *testing.T) {
	backendCalled := false
	laterReached := false

	short := Interceptor{
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			return nil, rpcstream.NewResultResponse(e.ID, []byte(`"cached"`)), nil
		},
	}
	later := Interceptor{
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			laterReached = true
			return e, nil, nil
		},
	}
	p := New(short, later)
	got, err := p.Dispatch(req(1, "m"), func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		backendCalled = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, backendCalled)
	assert.False(t, laterReached)
	assert.Equal(t, []byte(`"cached"`), []byte(got.Result))
}

func TestDispatchMapsJSONRPCErrorToErrorResponse(t *testing.T) {
	ic := Interceptor{
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			return nil, nil, &JSONRPCError{Code: rpcstream.CodeInvalidParams, Message: "bad params"}
		},
	}
	p := New(ic)
	got, err := p.Dispatch(req(5, "m"), func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		t.Fatal("backend should not be called")
		return nil, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, rpcstream.CodeInvalidParams, got.Error.Code)
	assert.Equal(t, "bad params", got.Error.Message)
}

func TestDispatchMapsGenericErrorToInternalError(t *testing.T) {
	ic := Interceptor{
		OnRequest: func(e *rpcstream.Envelope) (*rpcstream.Envelope, *rpcstream.Envelope, error) {
			return nil, nil, assertErr{}
		},
	}
	p := New(ic)
	got, err := p.Dispatch(req(5, "m"), func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, rpcstream.CodeInternalError, got.Error.Code)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestTrafficLoggerWritesBothDirections(t *testing.T) {
	var buf bytes.Buffer
	tl := NewTrafficLogger(&buf)
	p := New(tl)

	_, err := p.Dispatch(req(1, "m"), func(e *rpcstream.Envelope) (*rpcstream.Envelope, error) {
		return rpcstream.NewResultResponse(e.ID, []byte(`1`)), nil
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, `"req"`, string(first["direction"]))

	var second map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, `"res"`, string(second["direction"]))
}
