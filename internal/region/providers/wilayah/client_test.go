package wilayah

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/internal/region/providers/contract"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/provinces.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"31","name":"DKI JAKARTA"},{"id":"33","name":"JAWA TENGAH"}]`))
	})
	mux.HandleFunc("/regencies/33.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"3374","name":"KOTA SEMARANG"},{"code":"3301","name":"KABUPATEN CILACAP"}]}`))
	})
	mux.HandleFunc("/districts/3374.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/villages/337404.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientContract(t *testing.T) {
	srv := newCatalogServer(t)
	client := NewClient("test-wilayah", srv.URL, 5*time.Second)

	suite := &contract.SourceSuite{
		Source: client,
		Children: []contract.ChildrenCase{
			{
				Name:        "provinces keep server order",
				Level:       models.LevelProvince,
				ExpectCodes: []string{"31", "33"},
				ExpectFirst: "31",
			},
			{
				Name:        "regencies from data envelope",
				Level:       models.LevelRegency,
				ParentCode:  "33",
				ExpectCodes: []string{"3374"},
				ExpectFirst: "3374",
			},
		},
		Errors: []contract.ErrorCase{
			{Name: "unknown parent", Level: models.LevelRegency, ParentCode: "99", ExpectedError: providers.ErrorNotFound},
			{Name: "server error", Level: models.LevelDistrict, ParentCode: "3374", ExpectedError: providers.ErrorProviderOutage, ExpectedRetry: true},
			{Name: "throttled", Level: models.LevelVillage, ParentCode: "337404", ExpectedError: providers.ErrorRateLimited, ExpectedRetry: true},
			{Name: "missing parent", Level: models.LevelDistrict, ExpectedError: providers.ErrorInternal},
		},
	}
	suite.Run(t)
}

func TestChildrenResponseParser(t *testing.T) {
	t.Run("parses bare array", func(t *testing.T) {
		options, err := parseChildrenResponse("p", 200, []byte(`[{"id":"3374","province_id":"33","name":"KOTA SEMARANG"}]`))
		require.NoError(t, err)
		assert.Equal(t, []models.Option{{Code: "3374", Name: "KOTA SEMARANG"}}, options)
	})

	t.Run("empty list is not an error", func(t *testing.T) {
		options, err := parseChildrenResponse("p", 200, []byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, options)
	})

	t.Run("returns bad data for malformed JSON", func(t *testing.T) {
		_, err := parseChildrenResponse("p", 200, []byte(`[{invalid`))
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
	})

	t.Run("returns bad data for records without code", func(t *testing.T) {
		_, err := parseChildrenResponse("p", 200, []byte(`[{"name":"NAMELESS"}]`))
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
	})

	t.Run("unexpected 4xx is bad data and not retryable", func(t *testing.T) {
		_, err := parseChildrenResponse("p", 400, nil)
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
		assert.False(t, providers.IsRetryable(err))
	})
}

func TestClientScenarios(t *testing.T) {
	t.Run("respects context deadline", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := NewClient("slow", srv.URL, 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.FetchChildren(ctx, models.LevelProvince, "")
		require.Error(t, err)
		assert.Equal(t, providers.ErrorTimeout, providers.GetCategory(err))
		assert.True(t, providers.IsRetryable(err))
	})

	t.Run("unreachable catalog is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client := NewClient("down", url, time.Second)
		_, err := client.FetchChildren(context.Background(), models.LevelProvince, "")
		require.Error(t, err)
		assert.Equal(t, providers.ErrorNetwork, providers.GetCategory(err))
	})

	t.Run("escapes parent codes in the path", func(t *testing.T) {
		var path atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path.Store(r.URL.EscapedPath())
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client := NewClient("esc", srv.URL, time.Second)
		_, err := client.FetchChildren(context.Background(), models.LevelDistrict, "33.74")
		require.NoError(t, err)
		assert.Equal(t, "/districts/33.74.json", path.Load())
	})
}
