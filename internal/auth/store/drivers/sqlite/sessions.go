package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wardenhq/warden/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `id, user_id, tenant_id, state, auth_method, mfa_type,
	mfa_authenticated_at, user_agent, ip_address, started_at, valid_till,
	logged_out_at, created_at, updated_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TenantID, string(s.State), s.AuthenticationMethod, s.MFAType,
		mapOptionalTime(s.MFAAuthenticatedAt), s.UserAgent, s.IPAddress,
		s.StartedAt, s.ValidTill, mapOptionalTime(s.LoggedOutAt),
		s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (r *sessionsRepo) UpdateSession(ctx context.Context, s domain.Session) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, mfa_type = ?, mfa_authenticated_at = ?,
		 valid_till = ?, logged_out_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(s.State), s.MFAType, mapOptionalTime(s.MFAAuthenticatedAt),
		s.ValidTill, mapOptionalTime(s.LoggedOutAt), s.UpdatedAt, s.ID)
	return requireRowAffected(res, err)
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ?
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionsRepo) LogoutAllUserSessions(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, logged_out_at = ?, updated_at = ?
		 WHERE user_id = ? AND state IN (?, ?, ?)`,
		string(domain.SessionLoggedOut), now, now, userID,
		string(domain.SessionCreated), string(domain.SessionMFAPending),
		string(domain.SessionActive))
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE valid_till < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (domain.Session, error) {
	return scanSessionFrom(row)
}

func scanSessionRows(rows *sql.Rows) (domain.Session, error) {
	return scanSessionFrom(rows)
}

func scanSessionFrom(sc rowScanner) (domain.Session, error) {
	var (
		s          domain.Session
		state      string
		mfaAuthAt  sql.NullTime
		loggedOutAt sql.NullTime
	)
	err := sc.Scan(&s.ID, &s.UserID, &s.TenantID, &state, &s.AuthenticationMethod,
		&s.MFAType, &mfaAuthAt, &s.UserAgent, &s.IPAddress,
		&s.StartedAt, &s.ValidTill, &loggedOutAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.State = domain.SessionState(state)
	s.MFAAuthenticatedAt = mapNullTimePtr(mfaAuthAt)
	s.LoggedOutAt = mapNullTimePtr(loggedOutAt)
	return s, nil
}
