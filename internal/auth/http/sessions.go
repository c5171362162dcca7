package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// SessionHandler serves GET /v1/sessions/{id}, the session gate that
// relying services consult during token validation.
type SessionHandler struct {
	Sessions *service.SessionService
}

type sessionResponse struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	ValidTill time.Time `json:"valid_till"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")
	if id == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	session, err := h.Sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.ErrNotFound.WriteError(w)
			return
		}
		log.Error("session lookup failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	now := time.Now().UTC()
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		ID:        session.ID,
		State:     string(session.EffectiveState(now)),
		Active:    session.IsActive(now),
		ValidTill: session.ValidTill,
	})
}
