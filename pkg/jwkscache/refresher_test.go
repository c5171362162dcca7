package jwkscache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefresherWarmsCacheOnStart(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	srv := newJWKSServer(t, signer, nil)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	// Long interval: only the startup warm-up should fire.
	refresher := NewRefresher(client, nil, time.Hour)
	refresher.Start()

	require.Eventually(t, func() bool {
		return client.FetchCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	refresher.Stop()

	// The warm cache serves the kid without another fetch.
	fetches := client.FetchCount()
	_, err = client.ResolveKey(context.Background(), signer.KID())
	require.NoError(t, err)
	require.Equal(t, fetches, client.FetchCount())
}

func TestRefresherStopIsClean(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	srv := newJWKSServer(t, signer, nil)

	client, err := NewClient(ClientConfig{URL: srv.URL, Cache: NewMemory()})
	require.NoError(t, err)

	refresher := NewRefresher(client, nil, 10*time.Millisecond)
	refresher.Start()
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		refresher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
