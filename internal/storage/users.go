package storage

import (
	"context"
	"fmt"
	"time"

	"savings-tracker/internal/models"
)

const userColumns = "id, name, account_type, email, password_hash, created_at"

// CreateUser creates a new user with the given identity and password hash.
func (db *DB) CreateUser(ctx context.Context, name, email string, accountType models.AccountType, passwordHash string) (*models.User, error) {
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO users (name, account_type, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		name, string(accountType), email, passwordHash, dbTime(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var accountType string
	if err := row.Scan(&u.ID, &u.Name, &accountType, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	u.AccountType = models.AccountType(accountType)
	return &u, nil
}

// UpdatePasswordHash replaces the stored credential of a user.
func (db *DB) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	result, err := db.q.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(result)
}

// DeleteUser removes a user; entries, goals, notifications, reports and
// sessions go with it.
func (db *DB) DeleteUser(ctx context.Context, userID int64) error {
	result, err := db.q.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(result)
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
