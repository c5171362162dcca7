package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wardenhq/warden/pkg/blacklist"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// BlacklistHandler exposes the revocation list to relying services:
// GET /v1/blacklist/{jti} answers membership checks, POST /v1/blacklist
// revokes a token out-of-band (admin action).
type BlacklistHandler struct {
	Store blacklist.Store
}

type blacklistCheckResponse struct {
	JTI         string `json:"jti"`
	Blacklisted bool   `json:"blacklisted"`
}

type blacklistRevokeRequest struct {
	JTI        string `json:"jti"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

func (h *BlacklistHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	jti := r.PathValue("jti")
	if jti == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	revoked, err := h.Store.IsBlacklisted(ctx, jti)
	if err != nil {
		// A storage failure must not read as "not revoked".
		log.Error("blacklist check failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}
	if !revoked {
		// 404 still carries the membership answer in the body.
		httpx.WriteJSON(w, http.StatusNotFound, blacklistCheckResponse{JTI: jti, Blacklisted: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, blacklistCheckResponse{JTI: jti, Blacklisted: true})
}

func (h *BlacklistHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req blacklistRevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.JTI == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	ttl := blacklist.DefaultTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	if err := h.Store.Blacklist(ctx, req.JTI, ttl); err != nil {
		log.Error("blacklist insert failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
