// Package hooktest provides test helpers for webhook routers.
package hooktest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/hook"
)

// Client wraps an httptest.Server for convenient webhook testing.
type Client struct {
	Server *httptest.Server
}

// NewClient creates a test client from a router.
func NewClient(t testing.TB, r *hook.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a delivered webhook's response.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Get sends a GET request.
func Get(t testing.TB, c *Client, path string) *Response {
	t.Helper()
	return Do(t, c, http.MethodGet, path, nil, nil)
}

// Post sends a POST request with a raw body.
func Post(t testing.TB, c *Client, path, contentType string, body []byte) *Response {
	t.Helper()
	var header http.Header
	if contentType != "" {
		header = http.Header{"Content-Type": []string{contentType}}
	}
	return Do(t, c, http.MethodPost, path, body, header)
}

// PostJSON sends a POST request with v encoded as JSON.
func PostJSON(t testing.TB, c *Client, path string, v any) *Response {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("hooktest: marshal request body: %v", err)
	}
	return Post(t, c, path, "application/json", b)
}

// Do sends a request with the given method, body, and headers.
func Do(t testing.TB, c *Client, method, path string, body []byte, header http.Header) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("hooktest: create request: %v", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("hooktest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("hooktest: close body: %v", closeErr)
		}
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("hooktest: read body: %v", err)
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    b,
	}
}

// Recorder captures the Results of dispatches for later assertions. Attach it
// to individual requests with Context; it is safe for concurrent use.
type Recorder struct {
	ch chan *hook.Result
}

// NewRecorder returns a Recorder buffering up to size results.
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan *hook.Result, size)}
}

// Context returns a context that reports its dispatch's Result to the recorder.
func (r *Recorder) Context(ctx context.Context) context.Context {
	return hook.ObserveResult(ctx, func(res *hook.Result) {
		r.ch <- res
	})
}

// Next returns the next recorded Result, failing the test if none arrives.
func (r *Recorder) Next(t testing.TB) *hook.Result {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	default:
		t.Fatalf("hooktest: no result recorded")
		return nil
	}
}

// Middleware attaches the recorder to every request passing through a router.
func (r *Recorder) Middleware() hook.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(r.Context(req.Context())))
		})
	}
}
