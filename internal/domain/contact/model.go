package contact

import (
	"sort"
	"time"
)

// Contact represents a trusted contact that receives SOS notifications
type Contact struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Type          string    `json:"type"`
	PriorityOrder int       `json:"priority_order"`
	Active        bool      `json:"active"`
	AddedAt       time.Time `json:"added_at"`
}

// Contact types
const (
	TypeFamily           = "family"
	TypeFriend           = "friend"
	TypeEmergencyContact = "emergency_contact"
	TypeNeighbor         = "neighbor"
	TypeColleague        = "colleague"
)

// ActiveOrdered filters contacts down to the active ones and sorts them by
// ascending priority order. The sort is stable: contacts sharing a priority
// keep their original relative order.
func ActiveOrdered(contacts []*Contact) []*Contact {
	active := make([]*Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Active {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].PriorityOrder < active[j].PriorityOrder
	})
	return active
}

// ValidType reports whether t is a known contact type.
func ValidType(t string) bool {
	switch t {
	case TypeFamily, TypeFriend, TypeEmergencyContact, TypeNeighbor, TypeColleague:
		return true
	}
	return false
}
