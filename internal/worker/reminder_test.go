package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/testutil"
)

// recordingDispatcher records Process calls and can be told to fail for
// specific user IDs.
type recordingDispatcher struct {
	calls   []dispatchCall
	failFor map[int64]bool
}

type dispatchCall struct {
	userID      int64
	description string
	mode        alert.Mode
}

func (d *recordingDispatcher) Process(ctx context.Context, userID int64, description, coordinates, address string, mode alert.Mode) (*alert.DispatchOutcome, error) {
	d.calls = append(d.calls, dispatchCall{userID: userID, description: description, mode: mode})
	if d.failFor[userID] {
		return nil, fmt.Errorf("dispatch failed for user %d", userID)
	}
	return &alert.DispatchOutcome{AlertID: int64(len(d.calls))}, nil
}

func (d *recordingDispatcher) RetryAfter(userID int64) time.Duration { return 0 }

func (d *recordingDispatcher) List(ctx context.Context, userID int64) ([]*alert.Alert, error) {
	return nil, nil
}

func (d *recordingDispatcher) UpdateStatus(ctx context.Context, userID, id int64, status string) error {
	return nil
}

func newTestScheduler(t *testing.T, alerts *testutil.MockAlertRepository, dispatcher *recordingDispatcher, now time.Time) *ReminderScheduler {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	s := NewReminderScheduler(dispatcher, alerts, 10*time.Minute, 5*time.Minute, log)
	s.now = func() time.Time { return now }
	return s
}

func TestReminderScheduler_QualifiesOnlyStaleActiveAlerts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := testutil.NewMockAlertRepository()
	ctx := context.Background()

	// Stale and still active: qualifies.
	alerts.Create(ctx, &alert.Alert{
		UserID: 1, TriggeredAt: now.Add(-7 * time.Minute),
		Status: alert.StatusActive, Description: "Fell down stairs",
	})
	// Inside the grace period: too fresh.
	alerts.Create(ctx, &alert.Alert{
		UserID: 2, TriggeredAt: now.Add(-2 * time.Minute),
		Status: alert.StatusActive, Description: "Chest pain",
	})
	// Stale but already resolved.
	alerts.Create(ctx, &alert.Alert{
		UserID: 3, TriggeredAt: now.Add(-30 * time.Minute),
		Status: alert.StatusResolved, Description: "False alarm",
	})

	d := &recordingDispatcher{}
	s := newTestScheduler(t, alerts, d, now)

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(d.calls) != 1 {
		t.Fatalf("dispatched %d reminders, want 1", len(d.calls))
	}
	if d.calls[0].userID != 1 || d.calls[0].mode != alert.ModeReminder {
		t.Errorf("call = %+v, want user 1 in reminder mode", d.calls[0])
	}
	if d.calls[0].description != "Fell down stairs" {
		t.Errorf("description = %q, want the original text", d.calls[0].description)
	}
}

func TestReminderScheduler_NeverRemindsAReminder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := testutil.NewMockAlertRepository()
	ctx := context.Background()

	// A reminder record from a previous run, now itself stale. Without the
	// marker check this would generate reminders forever.
	alerts.Create(ctx, &alert.Alert{
		UserID: 1, TriggeredAt: now.Add(-12 * time.Minute),
		Status: alert.StatusActive, Description: alert.ReminderPrefix + "Fell down stairs",
	})

	d := &recordingDispatcher{}
	s := newTestScheduler(t, alerts, d, now)

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(d.calls) != 0 {
		t.Errorf("dispatched %d reminders, want 0", len(d.calls))
	}
}

func TestReminderScheduler_DispatchFailureIsIsolated(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := testutil.NewMockAlertRepository()
	ctx := context.Background()

	for userID := int64(1); userID <= 3; userID++ {
		alerts.Create(ctx, &alert.Alert{
			UserID: userID, TriggeredAt: now.Add(-10 * time.Minute),
			Status: alert.StatusActive, Description: "help",
		})
	}

	d := &recordingDispatcher{failFor: map[int64]bool{2: true}}
	s := newTestScheduler(t, alerts, d, now)

	if err := s.Run(ctx); err != nil {
		t.Fatalf("a per-alert failure must not abort the run: %v", err)
	}
	if len(d.calls) != 3 {
		t.Errorf("dispatched %d reminders, want all 3 attempted", len(d.calls))
	}
}

func TestReminderScheduler_RunSummaryCountsQualifyingAlerts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alerts := testutil.NewMockAlertRepository()
	ctx := context.Background()

	// One qualifying alert, one active but still inside the grace period.
	alerts.Create(ctx, &alert.Alert{
		UserID: 1, TriggeredAt: now.Add(-8 * time.Minute),
		Status: alert.StatusActive, Description: "Fell down stairs",
	})
	alerts.Create(ctx, &alert.Alert{
		UserID: 2, TriggeredAt: now.Add(-1 * time.Minute),
		Status: alert.StatusActive, Description: "Chest pain",
	})

	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})
	d := &recordingDispatcher{}
	s := NewReminderScheduler(d, alerts, 10*time.Minute, 5*time.Minute, log)
	s.now = func() time.Time { return now }

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var summary struct {
		Active     int `json:"active"`
		Candidates int `json:"candidates"`
		Succeeded  int `json:"succeeded"`
		Failed     int `json:"failed"`
	}
	found := false
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if !bytes.Contains(line, []byte("Reminder run completed")) {
			continue
		}
		if err := json.Unmarshal(line, &summary); err != nil {
			t.Fatalf("failed to decode summary log line: %v", err)
		}
		found = true
	}
	if !found {
		t.Fatal("summary log line not emitted")
	}

	if summary.Active != 2 {
		t.Errorf("active = %d, want 2", summary.Active)
	}
	if summary.Candidates != 1 {
		t.Errorf("candidates = %d, want only the qualifying alert counted", summary.Candidates)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Errorf("succeeded/failed = %d/%d, want 1/0", summary.Succeeded, summary.Failed)
	}
}

func TestReminderScheduler_EnumerationFailureAbortsRun(t *testing.T) {
	alerts := testutil.NewMockAlertRepository()
	alerts.ListError = fmt.Errorf("connection refused")

	d := &recordingDispatcher{}
	s := newTestScheduler(t, alerts, d, time.Now())

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when alerts cannot be enumerated")
	}
	if len(d.calls) != 0 {
		t.Errorf("dispatched %d reminders, want 0", len(d.calls))
	}
}
