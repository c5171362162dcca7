package sqlite

import (
	"context"
	"time"
)

type blacklistRepo struct {
	db dbtx
}

// Blacklist inserts or extends a revoked jti. The MAX keeps the later
// expiry when an entry is blacklisted twice.
func (r *blacklistRepo) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blacklist (jti, expires_at, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(jti) DO UPDATE SET expires_at = MAX(expires_at, excluded.expires_at)`,
		jti, expiresAt, time.Now().UTC())
	return err
}

func (r *blacklistRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blacklist WHERE jti = ? AND expires_at > ?`,
		jti, time.Now().UTC()).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *blacklistRepo) DeleteExpiredEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM blacklist WHERE expires_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
