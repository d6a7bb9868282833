package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
)

// ContactRepository implements contact.Repository
type ContactRepository struct {
	db *DB
}

// NewContactRepository creates a new trusted contact repository
func NewContactRepository(db *DB) contact.Repository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) (int64, error) {
	if c.AddedAt.IsZero() {
		c.AddedAt = time.Now()
	}

	query := `
		INSERT INTO trusted_contacts (user_id, full_name, email, phone, type, priority_order, active, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.insertID(ctx, query,
		c.UserID, c.FullName, c.Email, c.Phone, c.Type, c.PriorityOrder, c.Active, c.AddedAt.Unix(),
	)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create contact", err)
	}

	c.ID = id
	return id, nil
}

// GetByID retrieves a contact by ID scoped to its owner
func (r *ContactRepository) GetByID(ctx context.Context, userID, id int64) (*contact.Contact, error) {
	query := `
		SELECT id, user_id, full_name, email, phone, type, priority_order, active, added_at
		FROM trusted_contacts WHERE id = ? AND user_id = ?
	`

	var c contact.Contact
	var phone sql.NullString
	var addedAt int64

	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.FullName, &c.Email, &phone, &c.Type, &c.PriorityOrder, &c.Active, &addedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Contact")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get contact", err)
	}

	if phone.Valid {
		c.Phone = phone.String
	}
	c.AddedAt = time.Unix(addedAt, 0)

	return &c, nil
}

// ListByUser retrieves all contacts belonging to a user
func (r *ContactRepository) ListByUser(ctx context.Context, userID int64) ([]*contact.Contact, error) {
	query := `
		SELECT id, user_id, full_name, email, phone, type, priority_order, active, added_at
		FROM trusted_contacts
		WHERE user_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list contacts", err)
	}
	defer rows.Close()

	var contacts []*contact.Contact
	for rows.Next() {
		var c contact.Contact
		var phone sql.NullString
		var addedAt int64

		err := rows.Scan(&c.ID, &c.UserID, &c.FullName, &c.Email, &phone, &c.Type, &c.PriorityOrder, &c.Active, &addedAt)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan contact", err)
		}

		if phone.Valid {
			c.Phone = phone.String
		}
		c.AddedAt = time.Unix(addedAt, 0)

		contacts = append(contacts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate contacts", err)
	}

	return contacts, nil
}

// Update updates a contact
func (r *ContactRepository) Update(ctx context.Context, c *contact.Contact) error {
	query := `
		UPDATE trusted_contacts
		SET full_name = ?, email = ?, phone = ?, type = ?, priority_order = ?, active = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		c.FullName, c.Email, c.Phone, c.Type, c.PriorityOrder, c.Active, c.ID, c.UserID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update contact", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("Contact")
	}

	return nil
}

// Delete removes a contact scoped to its owner
func (r *ContactRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM trusted_contacts WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to delete contact", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("Contact")
	}

	return nil
}
