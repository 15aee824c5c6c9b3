// Package auth verifies credentials against stored password hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/innohub/pkg/models"
	"github.com/garnizeh/innohub/pkg/repository"
)

// ErrInvalidCredentials covers unknown users, wrong passwords and inactive
// accounts alike so callers cannot tell them apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator resolves a username and password to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type Service struct {
	users  repository.UserRepo
	logger *slog.Logger
}

var _ Authenticator = (*Service)(nil)

func NewService(users repository.UserRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, logger: logger}
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		// keep timing close to the found-user path
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.logger.Info("login refused for inactive user", slog.Int64("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("innohub"), bcrypt.DefaultCost)

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
