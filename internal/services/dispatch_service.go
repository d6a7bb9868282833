package services

import (
	"context"
	"sync"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/notify"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/metrics"
	"github.com/vahabvahabov/silentsignals/internal/ratelimit"
)

// DispatchService implements alert.Dispatcher. The pipeline is: admission
// (normal mode only), eligibility, persistence, contact resolution, then a
// concurrent fan-out over every channel for every contact. Persistence must
// succeed before any notification attempt starts; everything after it is
// best effort.
type DispatchService struct {
	users    user.Repository
	contacts contact.Repository
	alerts   alert.Repository
	limiter  *ratelimit.Limiter
	channels []notify.Channel

	channelTimeout time.Duration
	logger         *logger.Logger
	now            func() time.Time
}

// NewDispatchService creates the alert dispatch pipeline.
func NewDispatchService(
	users user.Repository,
	contacts contact.Repository,
	alerts alert.Repository,
	limiter *ratelimit.Limiter,
	channels []notify.Channel,
	channelTimeout time.Duration,
	log *logger.Logger,
) *DispatchService {
	return &DispatchService{
		users:          users,
		contacts:       contacts,
		alerts:         alerts,
		limiter:        limiter,
		channels:       channels,
		channelTimeout: channelTimeout,
		logger:         log,
		now:            time.Now,
	}
}

// Process runs the dispatch pipeline for one alert trigger.
func (s *DispatchService) Process(ctx context.Context, userID int64, description, coordinates, address string, mode alert.Mode) (*alert.DispatchOutcome, error) {
	// Reminders are system-initiated re-delivery of an already admitted
	// alert; only user-triggered alerts pass through admission control.
	if mode == alert.ModeNormal {
		if !s.limiter.Allow(userID) {
			retryAfter := int64(s.limiter.TimeUntilReset(userID).Seconds())
			s.logger.WithFields(map[string]interface{}{
				"user_id":     userID,
				"retry_after": retryAfter,
			}).Warn("Alert trigger denied by rate limiter")
			metrics.RecordAdmissionDenied()
			metrics.RecordDispatch(mode.String(), "rate_limited")
			return nil, errors.RateLimited(userID, retryAfter)
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		metrics.RecordDispatch(mode.String(), "ineligible")
		return nil, errors.UserNotEligible("user not found")
	}
	if !u.Enabled {
		metrics.RecordDispatch(mode.String(), "ineligible")
		return nil, errors.UserNotEligible("user account is disabled")
	}
	if !u.EmailVerified {
		metrics.RecordDispatch(mode.String(), "ineligible")
		return nil, errors.UserNotEligible("user email is not verified")
	}

	desc := description
	if mode == alert.ModeReminder {
		desc = alert.ReminderPrefix + description
	}

	a := &alert.Alert{
		UserID:      userID,
		TriggeredAt: s.now(),
		Coordinates: coordinates,
		Address:     address,
		Status:      alert.StatusActive,
		Description: desc,
	}

	id, err := s.alerts.Create(ctx, a)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"mode":    mode.String(),
		}).ErrorWithErr(err, "Failed to persist alert, aborting dispatch")
		metrics.RecordDispatch(mode.String(), "persistence_error")
		return nil, err
	}
	a.ID = id

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"user_id":  userID,
		"mode":     mode.String(),
	}).Info("Alert persisted")

	outcome := &alert.DispatchOutcome{AlertID: id}

	all, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		// The alert is already recorded; a resolution failure degrades
		// delivery breadth, it does not undo the admission.
		s.logger.With("alert_id", id).ErrorWithErr(err, "Failed to resolve trusted contacts")
		metrics.RecordDispatch(mode.String(), "admitted")
		return outcome, nil
	}

	active := contact.ActiveOrdered(all)
	outcome.Contacts = len(active)
	if len(active) == 0 {
		s.logger.WithFields(map[string]interface{}{
			"alert_id": id,
			"user_id":  userID,
		}).Warn("No active trusted contacts, alert recorded without notifications")
		metrics.RecordDispatch(mode.String(), "admitted")
		return outcome, nil
	}

	msg := notify.Message{
		Username:    u.Username,
		Description: desc,
		Coordinates: coordinates,
		Address:     address,
		Reminder:    mode == alert.ModeReminder,
	}

	s.fanOut(ctx, msg, active, outcome)

	s.logger.WithFields(map[string]interface{}{
		"alert_id":  id,
		"contacts":  outcome.Contacts,
		"attempts":  outcome.Attempts,
		"delivered": outcome.Delivered,
		"skipped":   outcome.Skipped,
		"failed":    outcome.Failed,
	}).Info("Alert dispatch completed")
	metrics.RecordDispatch(mode.String(), "admitted")

	return outcome, nil
}

// fanOut attempts delivery for every addressable contact-channel pair
// concurrently. Attempts are fully isolated: each carries its own timeout
// and a failure never cancels or skips the others.
func (s *DispatchService) fanOut(ctx context.Context, msg notify.Message, contacts []*contact.Contact, outcome *alert.DispatchOutcome) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, c := range contacts {
		for _, ch := range s.channels {
			if _, ok := ch.Recipient(c); !ok {
				continue
			}

			wg.Add(1)
			go func(ch notify.Channel, c *contact.Contact) {
				defer wg.Done()

				attemptCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
				defer cancel()

				res := ch.Deliver(attemptCtx, msg, c)
				metrics.RecordChannelAttempt(res.Channel, string(res.Status))

				if res.Status == notify.StatusFailed {
					s.logger.WithFields(map[string]interface{}{
						"alert_id": outcome.AlertID,
						"channel":  res.Channel,
						"contact":  c.ID,
						"reason":   res.Reason,
					}).ErrorWithErr(res.Err, "Channel delivery failed")
				}

				mu.Lock()
				outcome.Attempts++
				switch res.Status {
				case notify.StatusDelivered:
					outcome.Delivered++
				case notify.StatusSkipped:
					outcome.Skipped++
				case notify.StatusFailed:
					outcome.Failed++
				}
				mu.Unlock()
			}(ch, c)
		}
	}

	wg.Wait()
}

// RetryAfter returns the remaining rate-limit window for the user.
func (s *DispatchService) RetryAfter(userID int64) time.Duration {
	return s.limiter.TimeUntilReset(userID)
}

// List retrieves the user's alerts, newest first.
func (s *DispatchService) List(ctx context.Context, userID int64) ([]*alert.Alert, error) {
	return s.alerts.ListByUser(ctx, userID)
}

// UpdateStatus transitions an alert to a new status, e.g. resolving it so
// the reminder scheduler stops picking it up.
func (s *DispatchService) UpdateStatus(ctx context.Context, userID, id int64, status string) error {
	if !alert.ValidStatus(status) {
		return errors.BadRequest("unknown alert status: " + status)
	}

	if err := s.alerts.UpdateStatus(ctx, userID, id, status); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"user_id":  userID,
		"status":   status,
	}).Info("Alert status updated")
	return nil
}
