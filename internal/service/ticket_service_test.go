package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

func TestTicketList_RoleScopedAndPageClamped(t *testing.T) {
	store := &mockTicketStore{
		tickets: []domain.Ticket{{ID: "t-1"}, {ID: "t-2"}},
		byUser: map[string][]domain.Ticket{
			"u-1": {{ID: "t-1"}},
		},
	}
	svc := service.NewTicketService(store, zap.NewNop())

	all, err := svc.List(context.Background(), adminSession(), 2)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 || store.lastPage != 2 {
		t.Errorf("expected full listing on page 2, got %d rows page %d", len(all), store.lastPage)
	}

	own, err := svc.List(context.Background(), customerSession("u-1"), 0)
	if err != nil {
		t.Fatalf("customer list: %v", err)
	}
	if len(own) != 1 {
		t.Errorf("expected customer to see only own tickets, got %d", len(own))
	}
	if store.lastPage != 1 {
		t.Errorf("expected page 0 clamped to 1, got %d", store.lastPage)
	}
}

func TestTicketCreate_ForcesOwnerAndOpenStatus(t *testing.T) {
	store := &mockTicketStore{}
	svc := service.NewTicketService(store, zap.NewNop())

	created, err := svc.Create(context.Background(), customerSession("u-1"), &domain.Ticket{
		Subject: "Broken dashboard",
		UserID:  "someone-else", // payload must not choose the owner
		Status:  domain.TicketStatusClosed,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != "u-1" {
		t.Errorf("expected ticket owned by caller, got %q", created.UserID)
	}
	if created.Status != domain.TicketStatusOpen {
		t.Errorf("expected new ticket open, got %q", created.Status)
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected one insert, got %d", len(store.inserted))
	}
}

func TestTicketCreate_RequiresSubject(t *testing.T) {
	svc := service.NewTicketService(&mockTicketStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), customerSession("u-1"), &domain.Ticket{Subject: "   "})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTicketSetStatus(t *testing.T) {
	store := &mockTicketStore{}
	svc := service.NewTicketService(store, zap.NewNop())

	if err := svc.SetStatus(context.Background(), "t-1", domain.TicketStatusClosed); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if store.updates["t-1"]["status"] != domain.TicketStatusClosed {
		t.Errorf("expected status update to closed, got %v", store.updates["t-1"])
	}

	var ve *domain.ErrValidation
	if err := svc.SetStatus(context.Background(), "t-1", "resolved"); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	if err := svc.SetStatus(context.Background(), "", domain.TicketStatusOpen); !errors.As(err, &ve) {
		t.Errorf("expected ErrValidation for empty id, got %v", err)
	}
}
