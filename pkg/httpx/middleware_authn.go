package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/wardenhq/warden/pkg/cryptox"
	"github.com/wardenhq/warden/pkg/jwtx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// AuthnMiddleware authenticates requests with a Bearer access token.
//
// Every rejection is the same generic 401 regardless of cause; the
// specific failure (expired, revoked, bad signature, ...) is only
// written to the log so callers cannot probe token state.
func AuthnMiddleware(v *jwtx.Validator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Validate(ctx, raw)
			if err != nil {
				// Fingerprint instead of the raw token so logs stay
				// greppable without leaking credentials.
				log.Warn("token validation failed",
					"err", err,
					"token_fp", cryptox.FingerprintToken(raw))
				writeBearerError(w, "invalid token")
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRoles, c.Roles)
	ctx = context.WithValue(ctx, CtxKeyPermissions, c.Permissions)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
