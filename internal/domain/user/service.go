package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// Register creates a new account with a hashed password
	Register(ctx context.Context, username, email, password string) (*User, error)

	// Authenticate verifies credentials and returns the matching user
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// VerifyEmail marks the user's email address as verified
	VerifyEmail(ctx context.Context, id int64) error
}
