package http

import (
	"net/http"

	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// LogoutHandler serves POST /v1/logout. The token to revoke is the one
// that authenticated the request; its session is terminated and its jti
// blacklisted. Repeated logouts return 204 all the same.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, claims); err != nil {
		log.Error("logout failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
