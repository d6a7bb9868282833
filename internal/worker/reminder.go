package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/metrics"
)

// ReminderScheduler periodically re-dispatches ACTIVE alerts that have gone
// unresolved past the grace period. Reminders go through the normal dispatch
// pipeline in reminder mode, which bypasses rate limiting and prefixes the
// description with the reminder marker. Alerts already carrying the marker
// never qualify again, so a reminder is sent at most once per alert.
type ReminderScheduler struct {
	dispatcher alert.Dispatcher
	alerts     alert.Repository
	interval   time.Duration
	grace      time.Duration
	logger     *logger.Logger

	cron *cron.Cron
	now  func() time.Time
}

// NewReminderScheduler creates the reminder scheduler.
func NewReminderScheduler(
	dispatcher alert.Dispatcher,
	alerts alert.Repository,
	interval time.Duration,
	grace time.Duration,
	log *logger.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		dispatcher: dispatcher,
		alerts:     alerts,
		interval:   interval,
		grace:      grace,
		logger:     log,
		now:        time.Now,
	}
}

// Start schedules the recurring reminder run. A failed run is only logged;
// the next scheduled tick is its retry.
func (s *ReminderScheduler) Start() {
	s.cron = cron.New()
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		if err := s.Run(context.Background()); err != nil {
			s.logger.ErrorWithErr(err, "Reminder run failed, waiting for next tick")
		}
	}))
	s.cron.Start()

	s.logger.WithFields(map[string]interface{}{
		"interval": s.interval.String(),
		"grace":    s.grace.String(),
	}).Info("Reminder scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *ReminderScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.logger.Info("Reminder scheduler stopped")
}

// Run executes one reminder pass. Only a failure to enumerate candidate
// alerts aborts the pass; individual dispatch failures are logged, counted
// and do not affect the remaining alerts.
func (s *ReminderScheduler) Run(ctx context.Context) error {
	active, err := s.alerts.ListByStatus(ctx, alert.StatusActive)
	if err != nil {
		metrics.RecordReminderRun("error")
		return fmt.Errorf("failed to enumerate active alerts: %w", err)
	}

	cutoff := s.now().Add(-s.grace)

	candidates, succeeded, failed := 0, 0, 0
	for _, a := range active {
		if !a.TriggeredAt.Before(cutoff) {
			continue
		}
		if alert.IsReminderDescription(a.Description) {
			continue
		}
		candidates++

		// Strip defensively in case a reminder-tagged record slipped past
		// the qualification filter through an earlier version of the data.
		description := alert.OriginalDescription(a.Description)

		_, err := s.dispatcher.Process(ctx, a.UserID, description, a.Coordinates, a.Address, alert.ModeReminder)
		if err != nil {
			failed++
			metrics.RecordReminderDispatch("error")
			s.logger.WithFields(map[string]interface{}{
				"alert_id": a.ID,
				"user_id":  a.UserID,
			}).ErrorWithErr(err, "Failed to send reminder")
			continue
		}

		succeeded++
		metrics.RecordReminderDispatch("ok")
	}

	s.logger.WithFields(map[string]interface{}{
		"active":     len(active),
		"candidates": candidates,
		"succeeded":  succeeded,
		"failed":     failed,
	}).Info("Reminder run completed")
	metrics.RecordReminderRun("ok")

	return nil
}
