package jwkscache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/jwtx"
)

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()
	pemBytes, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	signer, err := jwtx.NewSigner("test-kid", pemBytes)
	require.NoError(t, err)
	return signer
}

// newJWKSServer serves the signer's public key as a JWKS document. The
// gate channel, when non-nil, holds every response until it is closed.
func newJWKSServer(t *testing.T, signer *jwtx.Signer, gate <-chan struct{}) *httptest.Server {
	t.Helper()
	doc := jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if gate != nil {
			<-gate
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchOnMiss(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	srv := newJWKSServer(t, signer, nil)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	ctx := context.Background()
	pub, err := client.ResolveKey(ctx, signer.KID())
	require.NoError(t, err)
	require.EqualValues(t, 1, client.FetchCount())

	want, err := signer.PublicJWK().PublicKey()
	require.NoError(t, err)
	require.True(t, want.Equal(pub))

	// Second resolve is a cache hit, no new fetch.
	_, err = client.ResolveKey(ctx, signer.KID())
	require.NoError(t, err)
	require.EqualValues(t, 1, client.FetchCount())
}

func TestClientSingleflight(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	gate := make(chan struct{})
	srv := newJWKSServer(t, signer, gate)

	client, err := NewClient(ClientConfig{
		URL:   srv.URL,
		Cache: NewMemory(),
		// Effectively disable the miss throttle so every goroutine
		// reaches the singleflight group.
		MinRefreshInterval: time.Nanosecond,
	})
	require.NoError(t, err)

	const workers = 8
	ctx := context.Background()
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.ResolveKey(ctx, signer.KID())
		}()
	}

	// Hold the response until every worker is parked on the in-flight
	// fetch, then let the single round trip complete.
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	require.EqualValues(t, 1, client.FetchCount(), "concurrent misses collapse into one fetch")
}

func TestClientMissThrottle(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	srv := newJWKSServer(t, signer, nil)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	client.SetClock(func() time.Time { return clock })

	ctx := context.Background()

	// The served document never contains this kid, so the fetch completes
	// but the resolve still misses.
	_, err = client.ResolveKey(ctx, "no-such-kid")
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	require.EqualValues(t, 1, client.FetchCount())

	// Within the refresh window the issuer is left alone.
	_, err = client.ResolveKey(ctx, "no-such-kid")
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	require.EqualValues(t, 1, client.FetchCount())

	clock = clock.Add(DefaultMinRefreshInterval + time.Second)

	_, err = client.ResolveKey(ctx, "no-such-kid")
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	require.EqualValues(t, 2, client.FetchCount())
}

func TestClientFailedFetchKeepsCache(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	doc := jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}}

	var mu sync.Mutex
	broken := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		down := broken
		mu.Unlock()
		if down {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Refresh(ctx))

	mu.Lock()
	broken = true
	mu.Unlock()

	require.ErrorIs(t, client.Refresh(ctx), ErrFetch)

	// The previously cached key is still served.
	_, err = client.ResolveKey(ctx, signer.KID())
	require.NoError(t, err)
}

func TestClientRejectsEmptyKeyList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	require.ErrorIs(t, client.Refresh(context.Background()), ErrFetch)
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{Cache: NewMemory()})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{URL: "http://localhost/jwks"})
	require.Error(t, err)
}
