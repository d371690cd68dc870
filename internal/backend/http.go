package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mcpadre.dev/mcpadre/internal/rpcstream"
)

// httpBodySnippetLen bounds how much of a non-2xx body is quoted in the
// transport error.
const httpBodySnippetLen = 200

// HTTPConfig configures the http client.
type HTTPConfig struct {
	URL     string
	Headers map[string]string
	Client  *http.Client // defaults to http.DefaultClient
}

// HTTP is the one-shot-POST-per-message client. It is hand-rolled against
// net/http rather than a ready-made MCP client transport: those own a
// persistent session with their own initialize handshake and session-id
// bookkeeping, which conflicts with forwarding a host's raw JSON-RPC
// envelopes — including its own initialize call — as independent, stateless
// POSTs with caller-controlled headers and manual last-data-line SSE
// selection.
type HTTP struct {
	cfg HTTPConfig
}

// NewHTTP constructs an HTTP backend; cfg.Headers should already be
// resolved (env resolution applied to the header recipes).
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &HTTP{cfg: cfg}
}

func (h *HTTP) Send(ctx context.Context, req *rpcstream.Envelope) (*rpcstream.Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("backend: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	for k, v := range h.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	isNotification := req.ID == nil || req.ID.IsNil()

	resp, err := h.cfg.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := respBody
		if len(snippet) > httpBodySnippetLen {
			snippet = snippet[:httpBodySnippetLen]
		}
		return nil, fmt.Errorf("backend: http status %d: %s", resp.StatusCode, snippet)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/event-stream") {
		return parseSSE(respBody, req.ID)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		if isNotification {
			return rpcstream.SyntheticNullResult(nil), nil
		}
		return nil, fmt.Errorf("backend: empty response body for request id %s", req.ID.Key())
	}

	var env rpcstream.Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("backend: decode response body: %w", err)
	}
	return &env, nil
}

// parseSSE scans body for "data: " lines and returns the last one that
// parses as a JSON-RPC envelope. If none parses, it returns a
// JSON-RPC error response (not a Go error) carrying the original id.
func parseSSE(body []byte, id *rpcstream.ID) (*rpcstream.Envelope, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var last *rpcstream.Envelope
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		var env rpcstream.Envelope
		if err := json.Unmarshal([]byte(data), &env); err == nil {
			last = &env
		}
	}
	if last == nil {
		return rpcstream.NewErrorResponse(id, rpcstream.CodeInternalError, "no valid JSON in SSE"), nil
	}
	return last, nil
}

// Stop is a no-op for the HTTP client.
func (h *HTTP) Stop(ctx context.Context) error { return nil }

func (h *HTTP) ClientType() string { return "http" }
