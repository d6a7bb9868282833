package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/notify"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/ratelimit"
	"github.com/vahabvahabov/silentsignals/internal/testutil"
)

type dispatchFixture struct {
	users    *testutil.MockUserRepository
	contacts *testutil.MockContactRepository
	alerts   *testutil.MockAlertRepository
	limiter  *ratelimit.Limiter
	realtime *testutil.MockChannel
	email    *testutil.MockChannel
	sms      *testutil.MockChannel
	service  *DispatchService
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()

	f := &dispatchFixture{
		users:    testutil.NewMockUserRepository(),
		contacts: testutil.NewMockContactRepository(),
		alerts:   testutil.NewMockAlertRepository(),
		limiter:  ratelimit.New(5, 5*time.Minute),
		realtime: testutil.NewMockChannel("realtime"),
		email:    testutil.NewMockChannel("email"),
		sms:      testutil.NewMockChannel("sms"),
	}
	f.sms.PhoneBased = true

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	f.service = NewDispatchService(
		f.users, f.contacts, f.alerts, f.limiter,
		[]notify.Channel{f.realtime, f.email, f.sms},
		time.Second, log,
	)

	f.users.Create(context.Background(), &user.User{
		Username:      "vahab",
		Email:         "vahab@example.com",
		Enabled:       true,
		EmailVerified: true,
	})
	return f
}

func (f *dispatchFixture) addContact(c *contact.Contact) {
	c.UserID = 1
	if c.PriorityOrder == 0 {
		c.PriorityOrder = 1
	}
	c.Active = true
	f.contacts.Create(context.Background(), c)
}

func TestDispatchService_Eligibility(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *user.User)
		userID int64
	}{
		{name: "unknown user", userID: 99},
		{name: "disabled account", mutate: func(u *user.User) { u.Enabled = false }, userID: 1},
		{name: "unverified email", mutate: func(u *user.User) { u.EmailVerified = false }, userID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t)
			if tt.mutate != nil {
				tt.mutate(f.users.Users[1])
			}

			_, err := f.service.Process(context.Background(), tt.userID, "help", "", "", alert.ModeNormal)
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Code != errors.ErrCodeUserNotEligible {
				t.Fatalf("Process() error = %v, want USER_NOT_ELIGIBLE", err)
			}
			if len(f.alerts.Alerts) != 0 {
				t.Error("no alert may be persisted for an ineligible user")
			}
		})
	}
}

func TestDispatchService_RateLimit(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.service.Process(ctx, 1, "help", "", "", alert.ModeNormal); err != nil {
			t.Fatalf("trigger %d failed: %v", i+1, err)
		}
	}

	_, err := f.service.Process(ctx, 1, "help", "", "", alert.ModeNormal)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeRateLimited {
		t.Fatalf("6th trigger error = %v, want RATE_LIMITED", err)
	}
	if len(f.alerts.Alerts) != 5 {
		t.Errorf("persisted %d alerts, want 5", len(f.alerts.Alerts))
	}
}

func TestDispatchService_ReminderBypassesRateLimit(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	// Exhaust the user's admission window.
	for i := 0; i < 5; i++ {
		if _, err := f.service.Process(ctx, 1, "help", "", "", alert.ModeNormal); err != nil {
			t.Fatalf("trigger %d failed: %v", i+1, err)
		}
	}

	out, err := f.service.Process(ctx, 1, "help", "", "", alert.ModeReminder)
	if err != nil {
		t.Fatalf("reminder dispatch should bypass the limiter, got %v", err)
	}
	if out.AlertID == 0 {
		t.Error("reminder dispatch should persist an alert")
	}

	// The reminder must not have consumed admission budget either: the
	// window still reports the same wait.
	if f.service.RetryAfter(1) == 0 {
		t.Error("normal-mode window should still be exhausted")
	}
}

func TestDispatchService_ReminderPrefixesDescription(t *testing.T) {
	f := newDispatchFixture(t)
	f.addContact(&contact.Contact{FullName: "Ana", Email: "ana@example.com"})

	_, err := f.service.Process(context.Background(), 1, "Fell down stairs", "", "", alert.ModeReminder)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	a := f.alerts.Alerts[1]
	if a.Description != "REMINDER: Fell down stairs" {
		t.Errorf("persisted description = %q", a.Description)
	}
	if got := f.email.Deliveries[0].Message.Description; got != "REMINDER: Fell down stairs" {
		t.Errorf("sent description = %q", got)
	}
	if alert.OriginalDescription(a.Description) != "Fell down stairs" {
		t.Errorf("OriginalDescription() = %q", alert.OriginalDescription(a.Description))
	}
}

func TestDispatchService_PersistenceFailureAbortsDispatch(t *testing.T) {
	f := newDispatchFixture(t)
	f.addContact(&contact.Contact{FullName: "Ana", Email: "ana@example.com"})
	f.alerts.CreateError = errors.DatabaseError("insert failed", nil)

	_, err := f.service.Process(context.Background(), 1, "help", "", "", alert.ModeNormal)
	if err == nil {
		t.Fatal("Process() should fail when persistence fails")
	}
	if f.realtime.DeliveryCount()+f.email.DeliveryCount()+f.sms.DeliveryCount() != 0 {
		t.Error("no notification may be attempted without a persisted record")
	}
}

func TestDispatchService_ZeroContactsIsNotAnError(t *testing.T) {
	f := newDispatchFixture(t)

	out, err := f.service.Process(context.Background(), 1, "help", "", "", alert.ModeNormal)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Attempts != 0 || out.Contacts != 0 {
		t.Errorf("outcome = %+v, want zero attempts", out)
	}
	if len(f.alerts.Alerts) != 1 {
		t.Error("the alert must still be persisted")
	}
}

func TestDispatchService_FanOut(t *testing.T) {
	f := newDispatchFixture(t)
	f.addContact(&contact.Contact{FullName: "Ana", Email: "ana@example.com", Phone: "+994501112233", PriorityOrder: 2})
	f.addContact(&contact.Contact{FullName: "Ben", Email: "ben@example.com", PriorityOrder: 1})
	f.addContact(&contact.Contact{FullName: "Inactive", Email: "off@example.com"})
	f.contacts.Contacts[3].Active = false

	out, err := f.service.Process(context.Background(), 1, "help", "40.4,49.8", "Baku", alert.ModeNormal)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// Ana: realtime + email + sms, Ben: realtime + email. Inactive contact
	// gets nothing.
	if out.Contacts != 2 {
		t.Errorf("Contacts = %d, want 2", out.Contacts)
	}
	if out.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", out.Attempts)
	}
	if out.Delivered != 5 {
		t.Errorf("Delivered = %d, want 5", out.Delivered)
	}
	if f.sms.DeliveryCount() != 1 {
		t.Errorf("sms deliveries = %d, want 1", f.sms.DeliveryCount())
	}
}

func TestDispatchService_ChannelFailureIsIsolated(t *testing.T) {
	f := newDispatchFixture(t)
	f.addContact(&contact.Contact{FullName: "Ana", Email: "ana@example.com"})
	f.addContact(&contact.Contact{FullName: "Ben", Email: "ben@example.com"})
	f.email.Result = notify.StatusFailed

	out, err := f.service.Process(context.Background(), 1, "help", "", "", alert.ModeNormal)
	if err != nil {
		t.Fatalf("a failing channel must not fail the dispatch: %v", err)
	}

	// Both contacts were still attempted on both channels.
	if f.email.DeliveryCount() != 2 {
		t.Errorf("email attempts = %d, want 2", f.email.DeliveryCount())
	}
	if f.realtime.DeliveryCount() != 2 {
		t.Errorf("realtime attempts = %d, want 2", f.realtime.DeliveryCount())
	}
	if out.Failed != 2 || out.Delivered != 2 {
		t.Errorf("outcome = %+v, want 2 delivered and 2 failed", out)
	}
}

func TestDispatchService_UpdateStatus(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()
	out, _ := f.service.Process(ctx, 1, "help", "", "", alert.ModeNormal)

	if err := f.service.UpdateStatus(ctx, 1, out.AlertID, alert.StatusResolved); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got := f.alerts.Alerts[out.AlertID].Status; got != alert.StatusResolved {
		t.Errorf("status = %s", got)
	}

	if err := f.service.UpdateStatus(ctx, 1, out.AlertID, "NOT_A_STATUS"); err == nil {
		t.Error("unknown status should be rejected")
	}
}

func TestDispatchService_SentDescriptionContainsReminderOnce(t *testing.T) {
	// Round trip: reminder of "Fell down stairs" goes out exactly as
	// "REMINDER: Fell down stairs".
	f := newDispatchFixture(t)
	f.addContact(&contact.Contact{FullName: "Ana", Email: "ana@example.com"})

	_, err := f.service.Process(context.Background(), 1, "Fell down stairs", "", "", alert.ModeReminder)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	sent := f.realtime.Deliveries[0].Message.Description
	if sent != "REMINDER: Fell down stairs" {
		t.Errorf("sent description = %q", sent)
	}
	if strings.Count(sent, alert.ReminderPrefix) != 1 {
		t.Errorf("reminder marker must appear exactly once, got %q", sent)
	}
}
