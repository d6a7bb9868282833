package services

import (
	"context"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

// ContactService implements contact.Service
type ContactService struct {
	contacts contact.Repository
	logger   *logger.Logger
}

// NewContactService creates a new contact service
func NewContactService(contacts contact.Repository, log *logger.Logger) *ContactService {
	return &ContactService{contacts: contacts, logger: log}
}

// Create adds a trusted contact for a user. Contact emails are unique per
// user; a duplicate is a conflict, not a second entry.
func (s *ContactService) Create(ctx context.Context, c *contact.Contact) (int64, error) {
	if !contact.ValidType(c.Type) {
		return 0, errors.BadRequest("unknown contact type: " + c.Type)
	}

	existing, err := s.contacts.ListByUser(ctx, c.UserID)
	if err != nil {
		return 0, err
	}
	for _, e := range existing {
		if e.Email == c.Email {
			return 0, errors.Conflict("a contact with this email already exists")
		}
	}

	if c.PriorityOrder <= 0 {
		c.PriorityOrder = 1
	}
	c.Active = true
	c.AddedAt = time.Now()

	id, err := s.contacts.Create(ctx, c)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"contact_id": id,
		"user_id":    c.UserID,
	}).Info("Trusted contact added")

	return id, nil
}

// List retrieves all contacts for a user.
func (s *ContactService) List(ctx context.Context, userID int64) ([]*contact.Contact, error) {
	return s.contacts.ListByUser(ctx, userID)
}

// Update updates a contact owned by the user.
func (s *ContactService) Update(ctx context.Context, userID, id int64, c *contact.Contact) error {
	if c.Type != "" && !contact.ValidType(c.Type) {
		return errors.BadRequest("unknown contact type: " + c.Type)
	}

	existing, err := s.contacts.GetByID(ctx, userID, id)
	if err != nil {
		return errors.NotFound("contact")
	}

	if c.FullName != "" {
		existing.FullName = c.FullName
	}
	if c.Email != "" {
		existing.Email = c.Email
	}
	if c.Phone != "" {
		existing.Phone = c.Phone
	}
	if c.Type != "" {
		existing.Type = c.Type
	}
	if c.PriorityOrder > 0 {
		existing.PriorityOrder = c.PriorityOrder
	}
	existing.Active = c.Active

	return s.contacts.Update(ctx, existing)
}

// Delete removes a contact owned by the user.
func (s *ContactService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.contacts.Delete(ctx, userID, id); err != nil {
		return errors.NotFound("contact")
	}

	s.logger.WithFields(map[string]interface{}{
		"contact_id": id,
		"user_id":    userID,
	}).Info("Trusted contact removed")
	return nil
}

// ActiveOrdered returns the user's active contacts in notification order.
func (s *ContactService) ActiveOrdered(ctx context.Context, userID int64) ([]*contact.Contact, error) {
	all, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return contact.ActiveOrdered(all), nil
}
