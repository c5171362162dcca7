package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	validator    *jwtx.Validator
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store              store.Store
	AuthService        *service.AuthService
	SessionService     *service.SessionService
	MFAService         *service.MFAService
	KeyRotationService *service.KeyRotationService
}

func NewRouter(
	keys *jwtx.KeySet,
	validator *jwtx.Validator,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		validator:    validator,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSessions()
	r.registerBlacklist()
	r.registerMFA()
	r.registerKeyRotation()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{AuthService: r.AuthService}

	// Rate limited by IP + username to slow credential stuffing.
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	r.Mux.Handle("POST /v1/login/mfa",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	logoutHandler := &LogoutHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(logoutHandler,
			httpx.AuthnMiddleware(r.validator),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Public key discovery for relying services.
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{Sessions: r.SessionService}

	// Service-to-service session gate; relying services poll this.
	r.Mux.Handle("GET /v1/sessions/{id}",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerBlacklist() {
	h := &BlacklistHandler{Store: r.SessionService.Blacklist}

	r.Mux.Handle("GET /v1/blacklist/{jti}",
		httpx.Chain(http.HandlerFunc(h.HandleCheck),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Revoking arbitrary tokens requires the tokens:revoke permission.
	r.Mux.Handle("POST /v1/blacklist",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.AuthnMiddleware(r.validator),
			httpx.RequireAnyPermission("tokens:revoke"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	secured := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.validator),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/mfa/enroll", secured(http.HandlerFunc(h.HandleEnroll)))
	r.Mux.Handle("POST /v1/mfa/verify", secured(http.HandlerFunc(h.HandleVerify)))
	r.Mux.Handle("POST /v1/mfa/disable", secured(http.HandlerFunc(h.HandleDisable)))
}

func (r *Router) registerKeyRotation() {
	if r.KeyRotationService == nil {
		return
	}
	h := &KeyRotationHandler{KeyRotation: r.KeyRotationService}

	r.Mux.Handle("POST /v1/keys/rotate",
		httpx.Chain(http.HandlerFunc(h.HandleRotate),
			httpx.AuthnMiddleware(r.validator),
			httpx.RequireAnyPermission("keys:rotate"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/keys/{kid}/retire",
		httpx.Chain(http.HandlerFunc(h.HandleRetire),
			httpx.AuthnMiddleware(r.validator),
			httpx.RequireAnyPermission("keys:rotate"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
