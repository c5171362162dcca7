package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/jwkscache"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// Router holds the resource service's HTTP surface: a protected demo
// endpoint plus health probes.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	validator    *jwtx.Validator
	jwksClient   *jwkscache.Client
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	validator *jwtx.Validator,
	jwksClient *jwkscache.Client,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		validator:    validator,
		jwksClient:   jwksClient,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.Mux.Handle("GET /v1/profile",
		httpx.Chain(http.HandlerFunc(ProfileHandler),
			httpx.AuthnMiddleware(r.validator),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/orders",
		httpx.Chain(http.HandlerFunc(OrdersHandler),
			httpx.AuthnMiddleware(r.validator),
			httpx.RequireAnyPermission("orders:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.jwksClient))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}
