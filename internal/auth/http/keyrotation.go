package http

import (
	"errors"
	"net/http"

	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/internal/auth/store"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// KeyRotationHandler lets operators rotate and retire signing keys at
// runtime: POST /v1/keys/rotate and POST /v1/keys/{kid}/retire.
type KeyRotationHandler struct {
	KeyRotation *service.KeyRotationService
}

func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	result, err := h.KeyRotation.Rotate(ctx)
	if err != nil {
		log.Error("key rotation failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	log.Info("signing key rotated", "new_kid", result.NewKid)
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *KeyRotationHandler) HandleRetire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	kid := r.PathValue("kid")
	if kid == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.KeyRotation.Retire(ctx, kid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.ErrNotFound.WriteError(w)
			return
		}
		log.Error("key retirement failed", "kid", kid, "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	log.Info("signing key retired", "kid", kid)
	w.WriteHeader(http.StatusNoContent)
}
