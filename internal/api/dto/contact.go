package dto

// CreateContactRequest represents a request to add a trusted contact
type CreateContactRequest struct {
	FullName      string `json:"full_name" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,min=4,max=20"`
	Type          string `json:"type" validate:"required,oneof=family friend emergency_contact neighbor colleague"`
	PriorityOrder int    `json:"priority_order,omitempty" validate:"omitempty,min=1"`
}

// UpdateContactRequest represents a request to update a trusted contact.
// Zero-valued fields are left untouched, except Active which is always applied.
type UpdateContactRequest struct {
	FullName      string `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,min=4,max=20"`
	Type          string `json:"type,omitempty" validate:"omitempty,oneof=family friend emergency_contact neighbor colleague"`
	PriorityOrder int    `json:"priority_order,omitempty" validate:"omitempty,min=1"`
	Active        bool   `json:"active"`
}
