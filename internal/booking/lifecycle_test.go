package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/outbox"
)

func mustBook(t *testing.T, f *fixture) model.Appointment {
	t.Helper()
	appt, err := f.service.Book(context.Background(), f.bookRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestCancelRestoresSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	cancelled, err := f.service.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !slot.Available {
		t.Error("slot not restored after cancel")
	}

	// booked + cancelled
	if len(f.sink.events) != 2 {
		t.Fatalf("emitted %d events, want 2", len(f.sink.events))
	}
	if f.sink.events[1].EventType != outbox.EventAppointmentCancelled {
		t.Errorf("event type = %s", f.sink.events[1].EventType)
	}
}

func TestCancelTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	if _, err := f.service.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	_, err := f.service.Cancel(ctx, appt.ID)
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("second cancel got %v, want ErrInvalidTransition", err)
	}
}

func TestCancelCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	if _, err := f.service.UpdateStatus(ctx, appt.ID, model.StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	_, err := f.service.Cancel(ctx, appt.ID)
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Cancel(context.Background(), "ffffffff-ffff-4fff-8fff-ffffffffffff")
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCancelWithDeletedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	if err := f.store.DeleteSlot(ctx, f.slot.ID); err != nil {
		t.Fatalf("delete slot: %v", err)
	}

	// Restoration is best-effort: a vanished slot must not block the cancel.
	cancelled, err := f.service.Cancel(ctx, appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestDeleteScheduledRestoresSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	if err := f.service.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.GetAppointment(ctx, appt.ID); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("appointment still present, err = %v", err)
	}

	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !slot.Available {
		t.Error("slot not restored after deleting scheduled appointment")
	}
}

func TestDeleteCompletedLeavesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	if _, err := f.service.UpdateStatus(ctx, appt.ID, model.StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := f.service.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available {
		t.Error("slot restored for a completed appointment")
	}
}

func TestUpdateStatusHasNoSlotSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := mustBook(t, f)

	updated, err := f.service.UpdateStatus(ctx, appt.ID, model.StatusCancelled)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", updated.Status)
	}

	// Unlike Cancel, a direct status write leaves the slot untouched.
	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available {
		t.Error("direct status update restored the slot")
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	f := newFixture(t)
	appt := mustBook(t, f)

	_, err := f.service.UpdateStatus(context.Background(), appt.ID, "rescheduled")
	var verr *booking.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want validation error", err)
	}
}
