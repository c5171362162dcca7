package blacklist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	revoked := map[string]int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/blacklist":
			var req struct {
				JTI        string `json:"jti"`
				TTLSeconds int64  `json:"ttl_seconds"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			revoked[req.JTI] = req.TTLSeconds
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet:
			jti := r.URL.Path[len("/v1/blacklist/"):]
			if _, ok := revoked[jti]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(`{"jti":"` + jti + `","blacklisted":true}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	ok, err := client.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, client.Blacklist(ctx, "jti-1", time.Hour))
	require.EqualValues(t, 3600, revoked["jti-1"])

	ok, err = client.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestClientFailsLoud(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	_, err := client.IsBlacklisted(ctx, "jti-1")
	require.ErrorIs(t, err, ErrUnavailable)

	require.ErrorIs(t, client.Blacklist(ctx, "jti-1", time.Hour), ErrUnavailable)

	// A dead auth service is an error too, never a silent pass.
	srv.Close()
	_, err = client.IsBlacklisted(ctx, "jti-1")
	require.ErrorIs(t, err, ErrUnavailable)
}
