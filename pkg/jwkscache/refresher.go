package jwkscache

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is how often the background refresher re-fetches
// the issuer's JWKS regardless of traffic.
const DefaultRefreshInterval = 5 * time.Minute

// Refresher proactively re-fetches JWKS keys on a fixed interval so the
// worst-case staleness window stays bounded and key rotations are noticed
// before the first verification miss. Failures are logged and retried next
// cycle; a transiently unavailable issuer never crashes the process.
type Refresher struct {
	Client   *Client
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRefresher creates a refresher for the given client. If interval is 0
// or negative, DefaultRefreshInterval is used.
func NewRefresher(client *Client, logger *slog.Logger, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		Client:   client,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down.
func (r *Refresher) Start() {
	go r.run()
	r.Logger.Info("jwks refresher started", "interval", r.Interval)
}

// Stop shuts the worker down cooperatively, waiting for any in-progress
// fetch to finish or time out.
func (r *Refresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.Logger.Info("jwks refresher stopped")
}

func (r *Refresher) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	// Warm the cache immediately on startup.
	r.refreshOnce()

	for {
		select {
		case <-ticker.C:
			r.refreshOnce()
		case <-r.stopCh:
			return
		}
	}
}

// refreshOnce runs a single cycle with a bounded deadline so shutdown is
// never blocked behind a hung fetch for longer than the fetch timeout.
func (r *Refresher) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultFetchTimeout)
	defer cancel()

	if err := r.Client.Refresh(ctx); err != nil {
		r.Logger.Warn("background jwks refresh failed", "err", err)
	}
}
