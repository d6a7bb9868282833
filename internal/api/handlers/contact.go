package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vahabvahabov/silentsignals/internal/api/dto"
	"github.com/vahabvahabov/silentsignals/internal/api/middleware"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/utils"
	"github.com/vahabvahabov/silentsignals/internal/pkg/validator"
)

// ContactHandler handles trusted contact requests
type ContactHandler struct {
	contactService contact.Service
	logger         *logger.Logger
	validator      *validator.Validator
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService contact.Service, log *logger.Logger, val *validator.Validator) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         log,
		validator:      val,
	}
}

// Create adds a trusted contact for the current user
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	var req dto.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	c := &contact.Contact{
		UserID:        userID,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Type:          req.Type,
		PriorityOrder: req.PriorityOrder,
	}

	if _, err := h.contactService.Create(r.Context(), c); err != nil {
		utils.WriteAppError(w, err, "Failed to create contact")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, c)
}

// List retrieves the current user's contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	contacts, err := h.contactService.List(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list contacts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, contacts)
}

// Update modifies a contact owned by the current user
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid contact ID"))
		return
	}

	var req dto.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	patch := &contact.Contact{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Type:          req.Type,
		PriorityOrder: req.PriorityOrder,
		Active:        req.Active,
	}

	if err := h.contactService.Update(r.Context(), userID, id, patch); err != nil {
		utils.WriteAppError(w, err, "Failed to update contact")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Contact updated", nil)
}

// Delete removes a contact owned by the current user
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid contact ID"))
		return
	}

	if err := h.contactService.Delete(r.Context(), userID, id); err != nil {
		utils.WriteAppError(w, err, "Failed to delete contact")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Contact deleted", nil)
}
