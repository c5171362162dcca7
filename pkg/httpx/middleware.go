package httpx

import "net/http"

// Middleware wraps a handler with a cross-cutting concern.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so the first listed middleware sees the request first:
// Chain(h, authn, ratelimit) authenticates before rate limiting.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
