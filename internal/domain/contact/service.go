package contact

import "context"

// Service defines the interface for trusted contact business logic
type Service interface {
	// Create adds a trusted contact for a user
	Create(ctx context.Context, c *Contact) (int64, error)

	// List retrieves all contacts for a user
	List(ctx context.Context, userID int64) ([]*Contact, error)

	// Update updates a contact owned by the user
	Update(ctx context.Context, userID, id int64, c *Contact) error

	// Delete removes a contact owned by the user
	Delete(ctx context.Context, userID, id int64) error

	// ActiveOrdered returns the user's active contacts sorted by ascending
	// priority order, preserving insertion order between equal priorities.
	ActiveOrdered(ctx context.Context, userID int64) ([]*Contact, error)
}
