package domain

import "time"

type User struct {
	ID           string
	TenantID     string
	Username     string
	DisplayName  string
	PasswordHash string     // argon2 encoded
	Roles        []string
	Permissions  []string
	MFAEnabled   *time.Time // Timestamp when MFA was enabled (nullable)
	MFASecret    *string    // TOTP secret (nullable, base32 encoded)
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MFARequired reports whether the user must complete a TOTP challenge
// before a session becomes active.
func (u *User) MFARequired() bool {
	return u.MFAEnabled != nil && u.MFASecret != nil
}
