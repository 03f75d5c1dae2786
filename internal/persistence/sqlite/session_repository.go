package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/studio-manager/internal/persistence"
)

// CreateSession persists a new authentication session.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.AccountID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatNullableTime(session.RevokedAt),
	)
	return mapError(err)
}

// GetSession retrieves a session by its token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, token, expires_at, created_at, revoked_at
		FROM sessions WHERE token = ?`, token)

	var session persistence.Session
	var expiresAt, createdAt string
	var revokedAt sql.NullString
	if err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&revokedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, mapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = scanNullableTime(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// RevokeSession marks the session for the token as revoked.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		formatTime(revokedAt),
		token,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffected(result)
}

// DeleteExpiredSessions removes sessions that expired before the reference
// instant.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	return mapError(err)
}
