package contact

import "context"

// Repository defines the interface for trusted contact data access
type Repository interface {
	// Create creates a new contact
	Create(ctx context.Context, c *Contact) (int64, error)

	// GetByID retrieves a contact by ID scoped to its owner
	GetByID(ctx context.Context, userID, id int64) (*Contact, error)

	// ListByUser retrieves all contacts belonging to a user
	ListByUser(ctx context.Context, userID int64) ([]*Contact, error)

	// Update updates a contact
	Update(ctx context.Context, c *Contact) error

	// Delete removes a contact scoped to its owner
	Delete(ctx context.Context, userID, id int64) error
}
