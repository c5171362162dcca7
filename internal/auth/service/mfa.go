package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/wardenhq/warden/internal/auth/store"
)

// MFAEnrollment is returned from EnrollTOTP so the user can add the
// secret to their authenticator app.
type MFAEnrollment struct {
	Secret  string `json:"secret"`
	URL     string `json:"url"` // otpauth:// URL, render as QR client-side
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name for TOTP (e.g., "Warden")
}

// EnrollTOTP generates a TOTP secret for the user and stores it. This
// does NOT enable MFA yet - the user must verify a code first.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (MFAEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("get user: %w", err)
	}
	if user.MFAEnabled != nil {
		return MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return MFAEnrollment{}, fmt.Errorf("store mfa secret: %w", err)
	}

	return MFAEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: user.Username,
	}, nil
}

// VerifyTOTP verifies a TOTP code and enables MFA for the user if valid.
func (s *MFAService) VerifyTOTP(ctx context.Context, userID string, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return errors.New("mfa not enrolled - call EnrollTOTP first")
	}
	if user.MFAEnabled != nil {
		return ErrMFAAlreadyEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().EnableMFA(ctx, userID)
}

// DisableTOTP turns MFA off after verifying a current code.
func (s *MFAService) DisableTOTP(ctx context.Context, userID string, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user.MFAEnabled == nil || user.MFASecret == nil {
		return ErrMFANotEnabled
	}
	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().DisableMFA(ctx, userID)
}
