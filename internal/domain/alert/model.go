package alert

import (
	"strings"
	"time"
)

// Alert represents a persisted SOS alert
type Alert struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	TriggeredAt time.Time `json:"triggered_at"`
	Coordinates string    `json:"location_coordinates,omitempty"`
	Address     string    `json:"location_address,omitempty"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
}

// Alert status
const (
	StatusActive    = "ACTIVE"
	StatusResolved  = "RESOLVED"
	StatusEscalated = "ESCALATED"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// ValidStatus reports whether s is a known alert status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusResolved, StatusEscalated, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Mode selects between a user-triggered dispatch and a system-initiated
// re-delivery of an already admitted alert.
type Mode int

const (
	ModeNormal Mode = iota
	ModeReminder
)

func (m Mode) String() string {
	if m == ModeReminder {
		return "reminder"
	}
	return "normal"
}

// ReminderPrefix marks descriptions of reminder alerts. The marker doubles as
// the loop guard: alerts already carrying it are never reminded again.
const ReminderPrefix = "REMINDER: "

// IsReminderDescription reports whether a description carries the reminder marker.
func IsReminderDescription(description string) bool {
	return strings.HasPrefix(description, ReminderPrefix)
}

// OriginalDescription strips the reminder marker, recovering the text the
// user originally entered.
func OriginalDescription(description string) string {
	return strings.TrimPrefix(description, ReminderPrefix)
}
