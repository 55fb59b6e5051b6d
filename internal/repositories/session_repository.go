package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/db"
)

// PostgresSessionStore persists refresh sessions, carrying the principal so a
// refresh does not need a user lookup.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save stores or replaces a session. The user's lapsed sessions are purged in the
// same round trip so the table does not grow with abandoned logins.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p := session.Principal
	batch := &pgx.Batch{}
	batch.Queue(`
        INSERT INTO sessions (refresh_token, user_id, email, username, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (refresh_token)
        DO UPDATE SET user_id = EXCLUDED.user_id, email = EXCLUDED.email,
                      username = EXCLUDED.username, expires_at = EXCLUDED.expires_at
    `, session.RefreshToken, p.UserID, p.Email, p.Username, session.ExpiresAt.UTC())
	batch.Queue(`DELETE FROM sessions WHERE user_id = $1 AND expires_at < NOW()`, p.UserID)

	results := conn.SendBatch(ctx, batch)
	if _, err := results.Exec(); err != nil {
		_ = results.Close()
		if mapped := mapPgError(err); mapped != nil {
			return fmt.Errorf("upsert session: %w", mapped)
		}
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := results.Exec(); err != nil {
		_ = results.Close()
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	return results.Close()
}

// Take deletes the session for refreshToken and returns it. A token that was
// already taken reports auth.ErrSessionNotFound.
func (s *PostgresSessionStore) Take(ctx context.Context, refreshToken string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var session auth.Session
	err = conn.QueryRow(ctx, `
        DELETE FROM sessions
        WHERE refresh_token = $1
        RETURNING refresh_token, user_id, email, username, expires_at
    `, refreshToken).Scan(
		&session.RefreshToken,
		&session.Principal.UserID, &session.Principal.Email, &session.Principal.Username,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("take session: %w", err)
	}

	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Delete revokes a session.
func (s *PostgresSessionStore) Delete(ctx context.Context, refreshToken string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
