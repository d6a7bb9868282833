package services

import (
	"context"
	"testing"

	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/testutil"
)

func newContactService(t *testing.T) (*ContactService, *testutil.MockContactRepository) {
	t.Helper()
	repo := testutil.NewMockContactRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewContactService(repo, log), repo
}

func TestContactService_Create(t *testing.T) {
	svc, repo := newContactService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, &contact.Contact{
		UserID:   1,
		FullName: "Ana",
		Email:    "ana@example.com",
		Type:     contact.TypeFamily,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c := repo.Contacts[id]
	if !c.Active {
		t.Error("new contacts should start active")
	}
	if c.PriorityOrder != 1 {
		t.Errorf("PriorityOrder = %d, want default 1", c.PriorityOrder)
	}

	_, err = svc.Create(ctx, &contact.Contact{
		UserID: 1, FullName: "Ana Again", Email: "ana@example.com", Type: contact.TypeFriend,
	})
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeConflict {
		t.Errorf("duplicate email error = %v, want CONFLICT", err)
	}

	// Same email under a different user is fine.
	if _, err := svc.Create(ctx, &contact.Contact{
		UserID: 2, FullName: "Ana", Email: "ana@example.com", Type: contact.TypeFamily,
	}); err != nil {
		t.Errorf("Create() for another user error = %v", err)
	}

	if _, err := svc.Create(ctx, &contact.Contact{
		UserID: 1, FullName: "Bad", Email: "bad@example.com", Type: "pet",
	}); err == nil {
		t.Error("unknown contact type should be rejected")
	}
}

func TestContactService_ActiveOrdered(t *testing.T) {
	svc, repo := newContactService(t)
	ctx := context.Background()

	svc.Create(ctx, &contact.Contact{UserID: 1, FullName: "Low", Email: "low@example.com", Type: contact.TypeFriend, PriorityOrder: 3})
	svc.Create(ctx, &contact.Contact{UserID: 1, FullName: "High", Email: "high@example.com", Type: contact.TypeFamily, PriorityOrder: 1})
	svc.Create(ctx, &contact.Contact{UserID: 1, FullName: "Mid A", Email: "mida@example.com", Type: contact.TypeNeighbor, PriorityOrder: 2})
	svc.Create(ctx, &contact.Contact{UserID: 1, FullName: "Mid B", Email: "midb@example.com", Type: contact.TypeNeighbor, PriorityOrder: 2})
	offID, _ := svc.Create(ctx, &contact.Contact{UserID: 1, FullName: "Off", Email: "off@example.com", Type: contact.TypeColleague})
	repo.Contacts[offID].Active = false

	got, err := svc.ActiveOrdered(ctx, 1)
	if err != nil {
		t.Fatalf("ActiveOrdered() error = %v", err)
	}

	want := []string{"High", "Mid A", "Mid B", "Low"}
	if len(got) != len(want) {
		t.Fatalf("got %d contacts, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].FullName != name {
			t.Errorf("position %d = %s, want %s", i, got[i].FullName, name)
		}
	}
}

func TestContactService_UpdateAndDelete(t *testing.T) {
	svc, repo := newContactService(t)
	ctx := context.Background()

	id, _ := svc.Create(ctx, &contact.Contact{
		UserID: 1, FullName: "Ana", Email: "ana@example.com", Type: contact.TypeFamily,
	})

	err := svc.Update(ctx, 1, id, &contact.Contact{Phone: "+994501112233", PriorityOrder: 2, Active: true})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if repo.Contacts[id].Phone != "+994501112233" || repo.Contacts[id].PriorityOrder != 2 {
		t.Errorf("contact after update = %+v", repo.Contacts[id])
	}
	if repo.Contacts[id].FullName != "Ana" {
		t.Error("untouched fields must keep their values")
	}

	// Ownership is enforced.
	if err := svc.Update(ctx, 2, id, &contact.Contact{FullName: "Hijack"}); err == nil {
		t.Error("updating another user's contact should fail")
	}
	if err := svc.Delete(ctx, 2, id); err == nil {
		t.Error("deleting another user's contact should fail")
	}

	if err := svc.Delete(ctx, 1, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.Contacts) != 0 {
		t.Error("contact should be gone")
	}
}
