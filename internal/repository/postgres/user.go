package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (username, email, password_hash, enabled, email_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.insertID(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.Enabled, u.EmailVerified, u.CreatedAt.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}

	u.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `
		SELECT id, username, email, password_hash, enabled, email_verified, created_at
		FROM users WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, username, email, password_hash, enabled, email_verified, created_at
		FROM users WHERE email = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, enabled = ?, email_verified = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.Enabled, u.EmailVerified, u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*user.User, error) {
	var u user.User
	var createdAt int64

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Enabled, &u.EmailVerified, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}

	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}
