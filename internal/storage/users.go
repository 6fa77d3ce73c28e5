package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/lingodeck/internal/domain"
)

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) user() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromUnix(r.CreatedAt),
	}
}

// CreateUser inserts a user and returns its ID. A taken username yields
// domain.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, now time.Time) (int64, error) {
	var id int64
	err := db.conn.GetContext(ctx, &id, db.conn.Rebind(`
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`), username, passwordHash, toUnix(now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("username %s: %w", username, domain.ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert user %s: %w", username, err)
	}
	return id, nil
}

// FindUserByUsername retrieves a user by name, or nil if there is none.
func (db *DB) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?
	`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}
	return row.user(), nil
}

// FindUserByID retrieves a user by ID, or nil if there is none.
func (db *DB) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = ?
	`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return row.user(), nil
}

// InsertSession stores a new session.
func (db *DB) InsertSession(ctx context.Context, s domain.Session) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`), s.Token, s.UserID, toUnix(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to insert session for user %d: %w", s.UserID, err)
	}
	return nil
}

// FindSession retrieves a session by token, or nil if there is none.
func (db *DB) FindSession(ctx context.Context, token string) (*domain.Session, error) {
	var row struct {
		Token     string `db:"token"`
		UserID    int64  `db:"user_id"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := db.conn.GetContext(ctx, &row, db.conn.Rebind(`
		SELECT token, user_id, expires_at
		FROM sessions WHERE token = ?
	`), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &domain.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: fromUnix(row.ExpiresAt),
	}, nil
}

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		DELETE FROM sessions WHERE token = ?
	`), token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now and
// returns how many were removed.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		DELETE FROM sessions WHERE expires_at <= ?
	`), toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired sessions: %w", err)
	}
	return n, nil
}
