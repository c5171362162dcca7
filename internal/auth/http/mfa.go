package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// MFAHandler serves TOTP enrollment for the authenticated user:
// POST /v1/mfa/enroll, POST /v1/mfa/verify, POST /v1/mfa/disable.
type MFAHandler struct {
	MFAService *service.MFAService
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			httpx.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("mfa enrollment failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollment)
}

func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.MFAService.VerifyTOTP)
}

func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.MFAService.DisableTOTP)
}

func (h *MFAHandler) withCode(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID, code string) error,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httpx.ErrInvalidJSONBody.WriteError(w)
		return
	}

	if err := fn(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			httpx.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrMFAAlreadyEnabled),
			errors.Is(err, service.ErrMFANotEnabled):
			httpx.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("mfa operation failed", "err", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
