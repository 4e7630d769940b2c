// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// API drives an http.Handler in-process with JSON requests.
type API struct {
	t       *testing.T
	handler http.Handler
}

func NewAPI(t *testing.T, handler http.Handler) *API {
	return &API{t: t, handler: handler}
}

// Response is a recorded response.
type Response struct {
	t        *testing.T
	Recorder *httptest.ResponseRecorder
}

// Do sends a request; a non-nil body is marshaled to JSON.
func (a *API) Do(method, path string, body any) *Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err, "failed to marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return &Response{t: a.t, Recorder: rr}
}

func (a *API) Get(path string) *Response {
	a.t.Helper()
	return a.Do(http.MethodGet, path, nil)
}

func (a *API) Post(path string, body any) *Response {
	a.t.Helper()
	return a.Do(http.MethodPost, path, body)
}

func (a *API) Delete(path string) *Response {
	a.t.Helper()
	return a.Do(http.MethodDelete, path, nil)
}

func (r *Response) Status() int {
	return r.Recorder.Code
}

// ErrorCode returns the "error" field of a JSON error envelope.
func (r *Response) ErrorCode() string {
	r.t.Helper()
	var body map[string]string
	require.NoError(r.t, json.Unmarshal(r.Recorder.Body.Bytes(), &body), "failed to unmarshal error response")
	return body["error"]
}

// AssertStatus asserts the response status code matches expected.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	assert.Equal(r.t, expected, r.Recorder.Code, "unexpected status code: %s", r.Recorder.Body.String())
	return r
}

// AssertError asserts both status code and error code.
func (r *Response) AssertError(status int, code string) {
	r.t.Helper()
	r.AssertStatus(status)
	assert.Equal(r.t, code, r.ErrorCode(), "unexpected error code")
}

// Decode unmarshals the response body into T.
func Decode[T any](r *Response) T {
	r.t.Helper()
	var v T
	require.NoError(r.t, json.Unmarshal(r.Recorder.Body.Bytes(), &v), "failed to unmarshal response: %s", r.Recorder.Body.String())
	return v
}
