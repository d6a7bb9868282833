package services

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

// UserService implements user.Service
type UserService struct {
	users  user.Repository
	logger *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users user.Repository, log *logger.Logger) *UserService {
	return &UserService{users: users, logger: log}
}

// Register creates a new account. The account starts enabled but with an
// unverified email, so it cannot trigger alerts until verification.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	if existing, _ := s.users.GetByEmail(ctx, email); existing != nil {
		return nil, errors.Conflict("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password", err)
	}

	u := &user.User{
		Username:      username,
		Email:         email,
		PasswordHash:  string(hash),
		Enabled:       true,
		EmailVerified: false,
		CreatedAt:     time.Now(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, errors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("invalid email or password")
	}

	if !u.Enabled {
		return nil, errors.Forbidden("account is disabled")
	}

	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user")
	}
	return u, nil
}

// VerifyEmail marks the user's email address as verified.
func (s *UserService) VerifyEmail(ctx context.Context, id int64) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return errors.NotFound("user")
	}
	if u.EmailVerified {
		return nil
	}

	u.EmailVerified = true
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	s.logger.With("user_id", id).Info("Email verified")
	return nil
}
