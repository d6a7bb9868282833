package dto

// TriggerAlertRequest represents an SOS alert trigger
type TriggerAlertRequest struct {
	Description string `json:"description" validate:"required,min=1,max=500"`
	Coordinates string `json:"coordinates,omitempty" validate:"omitempty,max=100"`
	Address     string `json:"address,omitempty" validate:"omitempty,max=255"`
}

// UpdateAlertStatusRequest represents an alert status transition
type UpdateAlertStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE RESOLVED ESCALATED EXPIRED CANCELLED"`
}

// DispatchOutcomeDTO summarizes the notification fan-out for one alert
type DispatchOutcomeDTO struct {
	AlertID   int64 `json:"alert_id"`
	Contacts  int   `json:"contacts"`
	Attempts  int   `json:"attempts"`
	Delivered int   `json:"delivered"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
}

// RateLimitStatusDTO reports the caller's remaining admission window
type RateLimitStatusDTO struct {
	RetryAfterSeconds int64 `json:"retry_after_seconds"`
}
