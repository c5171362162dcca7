package http

import (
	"net/http"
	"time"

	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/jwkscache"
)

type profileResponse struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name,omitempty"`
	TenantID    string   `json:"tenant_id,omitempty"`
	SessionID   string   `json:"session_id"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ProfileHandler echoes the validated token's identity back to the
// caller. Mostly useful to prove end-to-end validation works.
func ProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse{
		UserID:      claims.Subject,
		Name:        claims.Name,
		TenantID:    claims.TID,
		SessionID:   claims.SID,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	})
}

type order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrdersHandler is a permission-gated demo endpoint.
func OrdersHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, []order{
		{ID: "ord_001", Status: "fulfilled"},
		{ID: "ord_002", Status: "pending"},
	})
}

// LivezHandler is the liveness probe.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, httpx.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe. Keys are fetched lazily, so a cold
// cache does not fail readiness; it is surfaced in the checks so operators
// can tell a warming instance from a broken one.
func ReadyzHandler(startTime time.Time, version string, jwksClient *jwkscache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyCache := "warming"
		if jwksClient != nil && jwksClient.FetchCount() > 0 {
			keyCache = "ok"
		}
		httpx.WriteJSON(w, http.StatusOK, httpx.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks: &httpx.HealthChecks{
				KeyCache: keyCache,
			},
		})
	}
}
