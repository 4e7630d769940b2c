// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"alumni/pkg/platform/sentinel"
)

const maxBodyBytes = 64 << 10

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// RequestError carries its own status and code.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	return e.Code + ": " + e.Message
}

// BadRequest returns a 400 error with a client-facing description.
func BadRequest(format string, args ...any) error {
	return &RequestError{Status: http.StatusBadRequest, Code: "bad_request", Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a 409 error with a custom code.
func Conflict(code, message string) error {
	return &RequestError{Status: http.StatusConflict, Code: code, Message: message}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status and JSON envelope. Internal
// errors never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	status, resp := classify(err)
	WriteJSON(w, status, resp)
}

func classify(err error) (int, ErrorResponse) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status, ErrorResponse{Error: reqErr.Code, Description: reqErr.Message}
	}
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: "bad_request", Description: err.Error()}
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Description: err.Error()}
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrInvalidState):
		return http.StatusConflict, ErrorResponse{Error: "conflict", Description: err.Error()}
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Description: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error"}
}

// DecodeJSON decodes a bounded request body into T. An empty body yields
// the zero value when allowEmpty is set.
func DecodeJSON[T any](r *http.Request, allowEmpty bool) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return v, nil
		}
		return v, BadRequest("invalid JSON body: %v", err)
	}
	return v, nil
}
