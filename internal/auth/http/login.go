package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
	"github.com/wardenhq/warden/internal/auth/service"
	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/slogx"
)

// LoginHandler serves the password login flow: POST /v1/login and the
// TOTP follow-up POST /v1/login/mfa.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type mfaLoginRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	SessionID   string `json:"session_id"`
	MFARequired bool   `json:"mfa_required,omitempty"`
}

func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidJSONBody.WriteError(w)
		return
	}

	issued, err := h.AuthService.Login(ctx, service.LoginParams{
		Username:  req.Username,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IPAddress: httpx.ClientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrUserDisabled):
			// Same response for both so account state is not probeable.
			httpx.ErrInvalidCredentials.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   int64(issued.ExpiresIn / time.Second),
		SessionID:   issued.SessionID,
		MFARequired: issued.MFARequired,
	})
}

func (h *LoginHandler) HandleMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req mfaLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.SessionID == "" || req.Code == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	issued, err := h.AuthService.CompleteMFA(ctx, req.SessionID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrInvalidTOTPCode),
			errors.Is(err, service.ErrMFANotEnabled),
			errors.Is(err, domain.ErrSessionTerminal),
			errors.Is(err, domain.ErrMFANotPending):
			httpx.ErrInvalidCredentials.WriteError(w)
		default:
			log.Error("mfa login failed", "err", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
		ExpiresIn:   int64(issued.ExpiresIn / time.Second),
		SessionID:   issued.SessionID,
	})
}
