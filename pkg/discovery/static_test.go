package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRegistry_Servers(t *testing.T) {
	t.Run("reachable server", func(t *testing.T) {
		var gotAuth, gotPath string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"started": "now"}`))
		}))
		defer ts.Close()

		records, err := NewStaticRegistry(ts.URL, "tkn").Servers(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, ts.URL, records[0].URL)
		assert.Equal(t, "tkn", records[0].Token)
		assert.Equal(t, "static", records[0].Source)
		assert.Equal(t, "token tkn", gotAuth)
		assert.Equal(t, "/api/status", gotPath)
	})

	t.Run("server starting", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		records, err := NewStaticRegistry(ts.URL, "").Servers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("server down", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		addr := ts.URL
		ts.Close()

		records, err := NewStaticRegistry(addr, "").Servers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("bad token", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		_, err := NewStaticRegistry(ts.URL, "wrong").Servers(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected token")
		assert.NotContains(t, err.Error(), "wrong")
	})
}
