package storage

import (
	"context"
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
	LoginPending bool
}

// CreateSession creates a new session for a user. loginPending marks a fresh
// login whose one-shot evaluation has not run yet.
func (db *DB) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, loginPending bool) error {
	_, err := db.q.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity, login_pending) VALUES (?, ?, ?, ?, ?)",
		token, userID, dbTime(expiresAt), dbTime(time.Now()), loginPending,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(ctx context.Context, token string) (*SessionInfo, error) {
	row := db.q.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.account_type, u.email, u.password_hash, u.created_at,
		       s.last_activity, s.expires_at, s.login_pending
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, dbTime(time.Now()))

	var u models.User
	var accountType string
	var info SessionInfo
	if err := row.Scan(&u.ID, &u.Name, &accountType, &u.Email, &u.PasswordHash, &u.CreatedAt,
		&info.LastActivity, &info.ExpiresAt, &info.LoginPending); err != nil {
		return nil, notFound(err)
	}
	u.AccountType = models.AccountType(accountType)
	info.User = &u
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.q.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		dbTime(time.Now()), dbTime(newExpiresAt), token,
	)
	return err
}

// ConsumeLoginFlag clears the session's pending-login flag and reports
// whether this call was the one that cleared it.
func (db *DB) ConsumeLoginFlag(ctx context.Context, token string) (bool, error) {
	result, err := db.q.ExecContext(ctx,
		"UPDATE sessions SET login_pending = 0 WHERE token = ? AND login_pending = 1", token)
	if err != nil {
		return false, fmt.Errorf("consume login flag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteUserSessions removes every session of a user.
func (db *DB) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// CleanExpiredSessions removes all expired sessions and returns how many were removed.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int64, error) {
	result, err := db.q.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", dbTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("clean sessions: %w", err)
	}
	return result.RowsAffected()
}
