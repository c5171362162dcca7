package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/jwtx"
)

func newTestKeyManager(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: "warden-test"})
	require.NoError(t, err)
	return km
}

func signTestToken(t *testing.T, km *jwtx.KeyManager, p jwtx.AccessClaimsParams) string {
	t.Helper()
	token, _, err := km.ActiveSigner().SignAccess(p, time.Hour, "warden-test", nil, time.Now())
	require.NoError(t, err)
	return token
}

func okHandler(t *testing.T, sawClaims *jwtx.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawClaims != nil {
			claims, ok := ClaimsFromContext(r.Context())
			require.True(t, ok)
			*sawClaims = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	km := newTestKeyManager(t)
	validator := &jwtx.Validator{Verifier: km.Verifier}

	var seen jwtx.Claims
	handler := Chain(okHandler(t, &seen), AuthnMiddleware(validator))

	t.Run("valid token passes and populates context", func(t *testing.T) {
		token := signTestToken(t, km, jwtx.AccessClaimsParams{
			Subject:     "user-1",
			SessionID:   "sess-1",
			Permissions: []string{"orders:read"},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", seen.Subject)
		require.Equal(t, "sess-1", seen.SID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("garbage token rejected with the same generic 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid token")
	})

	t.Run("foreign issuer rejected", func(t *testing.T) {
		other := newTestKeyManager(t)
		token := signTestToken(t, other, jwtx.AccessClaimsParams{Subject: "user-1"})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func requestWithPermissions(perms ...string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), CtxKeyPermissions, perms)
	return req.WithContext(ctx)
}

func TestRequireAnyPermission(t *testing.T) {
	t.Parallel()

	handler := Chain(okHandler(t, nil), RequireAnyPermission("orders:read", "orders:write"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPermissions("orders:read"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPermissions("profile:read"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
}

func TestRequireAllPermissions(t *testing.T) {
	t.Parallel()

	handler := Chain(okHandler(t, nil), RequireAllPermissions("orders:read", "orders:write"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPermissions("orders:read", "orders:write", "extra"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithPermissions("orders:read"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	handler := Chain(okHandler(t, nil), RequireRole("admin"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), CtxKeyRoles, []string{"admin", "user"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), CtxKeyRoles, []string{"user"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(okHandler(t, nil), tag("outer"), tag("inner"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}
