package alert

import (
	"context"
	"time"
)

// DispatchOutcome aggregates the per-channel delivery results of one
// dispatch. It is transient: logged and returned to the caller, never stored.
type DispatchOutcome struct {
	AlertID   int64 `json:"alert_id"`
	Contacts  int   `json:"contacts"`
	Attempts  int   `json:"attempts"`
	Delivered int   `json:"delivered"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
}

// Dispatcher defines the interface for the alert dispatch pipeline
type Dispatcher interface {
	// Process validates eligibility, persists the alert and fans the
	// notification out to the user's trusted contacts. In ModeNormal the
	// call is subject to rate-limit admission; ModeReminder bypasses it.
	Process(ctx context.Context, userID int64, description, coordinates, address string, mode Mode) (*DispatchOutcome, error)

	// RetryAfter returns how long the user has to wait before a new alert
	// is admitted. Zero when the user is not rate limited.
	RetryAfter(userID int64) time.Duration

	// List retrieves the user's alerts, newest first
	List(ctx context.Context, userID int64) ([]*Alert, error)

	// UpdateStatus transitions an alert owned by the user to a new status
	UpdateStatus(ctx context.Context, userID, id int64, status string) error
}
