package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vahabvahabov/silentsignals/internal/api/dto"
	"github.com/vahabvahabov/silentsignals/internal/api/middleware"
	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/utils"
	"github.com/vahabvahabov/silentsignals/internal/pkg/validator"
)

// AlertHandler handles SOS alert requests
type AlertHandler struct {
	dispatcher alert.Dispatcher
	logger     *logger.Logger
	validator  *validator.Validator
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(dispatcher alert.Dispatcher, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{
		dispatcher: dispatcher,
		logger:     log,
		validator:  val,
	}
}

// Trigger fires an SOS alert for the current user
func (h *AlertHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	var req dto.TriggerAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	outcome, err := h.dispatcher.Process(
		r.Context(), userID, req.Description, req.Coordinates, req.Address, alert.ModeNormal,
	)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to dispatch alert")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.DispatchOutcomeDTO{
		AlertID:   outcome.AlertID,
		Contacts:  outcome.Contacts,
		Attempts:  outcome.Attempts,
		Delivered: outcome.Delivered,
		Skipped:   outcome.Skipped,
		Failed:    outcome.Failed,
	})
}

// List retrieves the current user's alerts, newest first
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	alerts, err := h.dispatcher.List(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to list alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, alerts)
}

// UpdateStatus transitions one of the current user's alerts
func (h *AlertHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid alert ID"))
		return
	}

	var req dto.UpdateAlertStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	if err := h.dispatcher.UpdateStatus(r.Context(), userID, id, req.Status); err != nil {
		utils.WriteAppError(w, err, "Failed to update alert status")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Alert status updated", nil)
}

// RateLimitStatus reports how long until the current user may trigger again
func (h *AlertHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.RateLimitStatusDTO{
		RetryAfterSeconds: int64(h.dispatcher.RetryAfter(userID).Seconds()),
	})
}
