package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/pkg/platform/sentinel"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "internal errors carry no description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, BadRequest("unknown level %q", "kelurahan"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, `unknown level "kelurahan"`, body["error_description"])
	})

	t.Run("sentinels map to statuses", func(t *testing.T) {
		cases := map[error]int{
			fmt.Errorf("session: %w", sentinel.ErrNotFound):   http.StatusNotFound,
			fmt.Errorf("catalog: %w", sentinel.ErrUnavailable): http.StatusServiceUnavailable,
			fmt.Errorf("retry: %w", sentinel.ErrInvalidState):  http.StatusConflict,
			fmt.Errorf("body: %w", sentinel.ErrInvalidInput):   http.StatusBadRequest,
			Conflict("level_disabled", "pick a province first"): http.StatusConflict,
		}
		for err, status := range cases {
			w := httptest.NewRecorder()
			WriteError(w, err)
			assert.Equal(t, status, w.Code, err.Error())
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Level string `json:"level"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"level":"province"}`))
		got, err := DecodeJSON[payload](r, false)
		require.NoError(t, err)
		assert.Equal(t, "province", got.Level)
	})

	t.Run("empty body allowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		got, err := DecodeJSON[payload](r, true)
		require.NoError(t, err)
		assert.Empty(t, got.Level)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		_, err := DecodeJSON[payload](r, false)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lvl":"x"}`))
		_, err := DecodeJSON[payload](r, false)
		assert.Error(t, err)
	})
}
