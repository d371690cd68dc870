package rpcstream

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParsesRequestsAndNotifications(t *testing.T) {
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
			`{"jsonrpc":"2.0","method":"notify"}` + "\n",
	)
	var out bytes.Buffer
	h := NewHandler(&out)

	done := make(chan error, 1)
	go func() { done <- h.Run(in) }()

	var got []*Envelope
	for env := range h.Requests() {
		got = append(got, env)
	}
	require.NoError(t, <-done)

	require.Len(t, got, 2)
	assert.True(t, got[0].IsRequest())
	assert.Equal(t, "ping", got[0].Method)
	assert.True(t, got[1].IsNotification())
}

func TestRunEmitsParseErrorAndContinues(t *testing.T) {
	in := strings.NewReader("not json\n" + `{"jsonrpc":"2.0","id":2,"method":"ok"}` + "\n")
	var out bytes.Buffer
	h := NewHandler(&out)

	go func() { _ = h.Run(in) }()

	env := <-h.Requests()
	assert.Equal(t, "ok", env.Method)

	out2 := out.String()
	assert.Contains(t, out2, `"code":-32700`)
}

func TestRunEmitsInvalidRequestForMissingMethod(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1}` + "\n")
	var out bytes.Buffer
	h := NewHandler(&out)

	err := h.Run(in)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"code":-32600`)
}

func TestRunHandlesOversizedLineWithinBuffer(t *testing.T) {
	big := strings.Repeat("a", 1024*1024)
	line := `{"jsonrpc":"2.0","id":1,"method":"m","params":{"blob":"` + big + `"}}`
	in := strings.NewReader(line + "\n")
	var out bytes.Buffer
	h := NewHandler(&out)

	go func() { _ = h.Run(in) }()
	env := <-h.Requests()
	assert.Equal(t, "m", env.Method)
}

func TestRunClosesRequestsAndDoneOnEOF(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	h := NewHandler(&out)

	require.NoError(t, h.Run(in))

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed")
	}
	_, ok := <-h.Requests()
	assert.False(t, ok)
}

func TestSendRequestCorrelatesViaDeliver(t *testing.T) {
	var out bytes.Buffer
	h := NewHandler(&out)

	req := &Envelope{JSONRPC: "2.0", ID: idPtr(NewNumberID(1)), Method: "echo"}

	resultCh := make(chan *Envelope, 1)
	go func() {
		resp, err := h.SendRequest(req)
		assert.NoError(t, err)
		resultCh <- resp
	}()

	// Give SendRequest time to register the pending id before delivering.
	time.Sleep(10 * time.Millisecond)
	h.Deliver(NewResultResponse(idPtr(NewNumberID(1)), []byte(`"ok"`)))

	resp := <-resultCh
	require.NotNil(t, resp)
	assert.Equal(t, []byte(`"ok"`), []byte(resp.Result))
	assert.Contains(t, out.String(), `"method":"echo"`)
}

func TestSendRequestRejectsNilID(t *testing.T) {
	var out bytes.Buffer
	h := NewHandler(&out)
	_, err := h.SendRequest(&Envelope{JSONRPC: "2.0", Method: "x"})
	assert.Error(t, err)
}

func idPtr(id ID) *ID { return &id }
