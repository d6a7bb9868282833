package alert

import "context"

// Repository defines the interface for alert data access
type Repository interface {
	// Create persists a new alert and returns its ID
	Create(ctx context.Context, a *Alert) (int64, error)

	// GetByID retrieves an alert scoped to its owner
	GetByID(ctx context.Context, userID, id int64) (*Alert, error)

	// ListByStatus retrieves all alerts with the given status
	ListByStatus(ctx context.Context, status string) ([]*Alert, error)

	// ListByUser retrieves all alerts belonging to a user, newest first
	ListByUser(ctx context.Context, userID int64) ([]*Alert, error)

	// UpdateStatus transitions an alert to a new status
	UpdateStatus(ctx context.Context, userID, id int64, status string) error
}
