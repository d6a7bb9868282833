package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
)

// AlertRepository implements alert.Repository
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *DB) alert.Repository {
	return &AlertRepository{db: db}
}

// Create persists a new alert and returns its ID
func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) (int64, error) {
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = time.Now()
	}

	query := `
		INSERT INTO sos_alerts (user_id, triggered_at, coordinates, address, status, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.insertID(ctx, query,
		a.UserID, a.TriggeredAt.Unix(), a.Coordinates, a.Address, a.Status, a.Description,
	)
	if err != nil {
		return 0, errors.DatabaseError("Failed to create alert", err)
	}

	a.ID = id
	return id, nil
}

// GetByID retrieves an alert scoped to its owner
func (r *AlertRepository) GetByID(ctx context.Context, userID, id int64) (*alert.Alert, error) {
	query := `
		SELECT id, user_id, triggered_at, coordinates, address, status, description
		FROM sos_alerts WHERE id = ? AND user_id = ?
	`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get alert", err)
	}

	return a, nil
}

// ListByStatus retrieves all alerts with the given status
func (r *AlertRepository) ListByStatus(ctx context.Context, status string) ([]*alert.Alert, error) {
	query := `
		SELECT id, user_id, triggered_at, coordinates, address, status, description
		FROM sos_alerts
		WHERE status = ?
		ORDER BY id ASC
	`
	return r.list(ctx, query, status)
}

// ListByUser retrieves all alerts belonging to a user, newest first
func (r *AlertRepository) ListByUser(ctx context.Context, userID int64) ([]*alert.Alert, error) {
	query := `
		SELECT id, user_id, triggered_at, coordinates, address, status, description
		FROM sos_alerts
		WHERE user_id = ?
		ORDER BY id DESC
	`
	return r.list(ctx, query, userID)
}

// UpdateStatus transitions an alert to a new status
func (r *AlertRepository) UpdateStatus(ctx context.Context, userID, id int64, status string) error {
	query := `UPDATE sos_alerts SET status = ? WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, status, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to update alert status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("Alert")
	}

	return nil
}

func (r *AlertRepository) list(ctx context.Context, query string, arg interface{}) ([]*alert.Alert, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate alerts", err)
	}

	return alerts, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row scanner) (*alert.Alert, error) {
	var a alert.Alert
	var coordinates, address sql.NullString
	var triggeredAt int64

	err := row.Scan(&a.ID, &a.UserID, &triggeredAt, &coordinates, &address, &a.Status, &a.Description)
	if err != nil {
		return nil, err
	}

	if coordinates.Valid {
		a.Coordinates = coordinates.String
	}
	if address.Valid {
		a.Address = address.String
	}
	a.TriggeredAt = time.Unix(triggeredAt, 0)

	return &a, nil
}
