package zippopotam

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cambridgeBody = `{
  "post code": "02139",
  "country": "United States",
  "country abbreviation": "US",
  "places": [
    {"place name": "Cambridge", "longitude": "-71.1042", "state": "Massachusetts", "state abbreviation": "MA", "latitude": "42.3647"}
  ]
}`

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ResolveZip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/02139", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cambridgeBody))
	}))
	defer srv.Close()

	g, err := testClient(srv.URL).ResolveZip(context.Background(), "02139")
	require.NoError(t, err)
	assert.Equal(t, domain.Geo{Lat: 42.3647, Lon: -71.1042}, g)
}

func TestClient_ResolveZip_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "404", status: http.StatusNotFound, body: `{}`, wantErr: domain.ErrZipNotFound},
		{name: "no places", status: http.StatusOK, body: `{"places": []}`, wantErr: domain.ErrZipNotFound},
		{name: "bad latitude", status: http.StatusOK, body: `{"places": [{"latitude": "north", "longitude": "-71"}]}`, wantErr: domain.ErrZipNotFound},
		{name: "out of range", status: http.StatusOK, body: `{"places": [{"latitude": "142", "longitude": "-71"}]}`, wantErr: domain.ErrZipNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).ResolveZip(context.Background(), "00000")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_ResolveZip_TransientErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).ResolveZip(context.Background(), "02139")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrZipNotFound)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"places": [`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).ResolveZip(context.Background(), "02139")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrZipNotFound)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := c.ResolveZip(context.Background(), "02139")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrZipNotFound)
	})
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
