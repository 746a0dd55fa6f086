package ai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// countingDoer counts requests and forwards them to next when set.
type countingDoer struct {
	calls atomic.Int32
	next  HTTPDoer
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	if d.next == nil {
		return nil, http.ErrHandlerTimeout
	}
	return d.next.Do(req)
}

// capturedRequest is what a test server saw.
type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

// newCaptureServer starts a server that records each request and answers
// with status and body.
func newCaptureServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()

		raw, _ := io.ReadAll(r.Body)
		captured.Body = nil
		_ = json.Unmarshal(raw, &captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server, captured
}

// messagesOf extracts the role/content pairs of a decoded "messages" array.
func messagesOf(t *testing.T, body map[string]interface{}, key string) []map[string]interface{} {
	t.Helper()
	raw, ok := body[key].([]interface{})
	if !ok {
		t.Fatalf("request body has no %q array: %v", key, body)
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]interface{}))
	}
	return out
}
