package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"savings-tracker/internal/auth"
	"savings-tracker/internal/log"
	"savings-tracker/internal/models"
	"savings-tracker/internal/storage"
)

// AccountService owns user registration and credentials.
type AccountService struct {
	db     *storage.DB
	logger *log.Logger
}

func NewAccountService(db *storage.DB, logger *log.Logger) *AccountService {
	return &AccountService{db: db, logger: logger.WithComponent(log.ComponentAccount)}
}

// Register validates the input, hashes the password and stores the user.
func (s *AccountService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, in.Name, in.Email, in.AccountType, hash)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID, log.FieldOperation, log.OpRegister)
	return user, nil
}

// Authenticate returns the user for a valid email and password pair.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// RotatePassword replaces the password after checking the current one.
func (s *AccountService) RotatePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return models.ErrInvalidCredentials
	}
	if err := models.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Password rotated", log.FieldUserID, userID)
	return nil
}

// EnsureSeedUser registers in when the database has no users yet. It
// reports whether a user was created.
func (s *AccountService) EnsureSeedUser(ctx context.Context, in models.RegisterInput) (bool, error) {
	count, err := s.db.UserCount(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Register(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}
