package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/notify"
	"github.com/termiplan/termiplan/internal/outbox"
	"github.com/termiplan/termiplan/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sinkRecorder captures emitted events without a database.
type sinkRecorder struct {
	mu     sync.Mutex
	events []outbox.Event
}

func (r *sinkRecorder) Append(_ context.Context, evt outbox.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

type fixture struct {
	store   *storage.MemoryStore
	service *booking.Service
	sink    *sinkRecorder
	doctor  model.Doctor
	slot    model.TimeSlot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	sp, err := store.CreateSpecialization(ctx, "Dermatologie")
	if err != nil {
		t.Fatalf("create specialization: %v", err)
	}
	doc, err := store.CreateDoctor(ctx, "Dr. Julia Fischer", sp.ID)
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	slot, err := store.CreateSlot(ctx, model.TimeSlot{
		DoctorID:  doc.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Available: true,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	logger := testLogger()
	sink := &sinkRecorder{}
	return &fixture{
		store:   store,
		service: booking.NewService(store, notify.NewLogNotifier(logger), sink, logger),
		sink:    sink,
		doctor:  doc,
		slot:    slot,
	}
}

func (f *fixture) bookRequest() booking.BookRequest {
	return booking.BookRequest{
		DoctorID:     f.doctor.ID,
		PatientName:  "Max Mustermann",
		PatientEmail: "max@example.com",
		DateTime:     f.slot.StartTime,
		TimeSlotID:   f.slot.ID,
	}
}

func TestBookReservesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.service.Book(ctx, f.bookRequest())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.ID == "" {
		t.Error("appointment has no id")
	}
	if appt.Status != model.StatusScheduled {
		t.Errorf("status = %s, want scheduled", appt.Status)
	}
	if appt.TimeSlotID != f.slot.ID {
		t.Errorf("time slot id = %s, want %s", appt.TimeSlotID, f.slot.ID)
	}

	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available {
		t.Error("slot still available after booking")
	}

	if len(f.sink.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(f.sink.events))
	}
	if f.sink.events[0].EventType != outbox.EventAppointmentBooked {
		t.Errorf("event type = %s", f.sink.events[0].EventType)
	}
}

func TestBookSameSlotTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Book(ctx, f.bookRequest()); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := f.service.Book(ctx, f.bookRequest())
	if !errors.Is(err, booking.ErrSlotUnavailable) {
		t.Fatalf("second booking got %v, want ErrSlotUnavailable", err)
	}

	appts, err := f.store.ListAppointments(ctx)
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 1 {
		t.Errorf("%d appointments exist, want 1", len(appts))
	}
}

func TestBookConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Book(ctx, f.bookRequest())
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, booking.ErrSlotUnavailable):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("%d bookings succeeded, want exactly 1", won)
	}
	if lost != attempts-1 {
		t.Errorf("%d bookings rejected, want %d", lost, attempts-1)
	}

	appts, err := f.store.ListAppointments(ctx)
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 1 {
		t.Errorf("%d appointments exist, want 1", len(appts))
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	req := f.bookRequest()
	req.DoctorID = "ffffffff-ffff-4fff-8fff-ffffffffffff"

	_, err := f.service.Book(context.Background(), req)
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestBookUnknownSlot(t *testing.T) {
	f := newFixture(t)
	req := f.bookRequest()
	req.TimeSlotID = "ffffffff-ffff-4fff-8fff-ffffffffffff"

	_, err := f.service.Book(context.Background(), req)
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*booking.BookRequest)
		field  string
	}{
		{"missing patient name", func(r *booking.BookRequest) { r.PatientName = "" }, "patient_name"},
		{"missing email", func(r *booking.BookRequest) { r.PatientEmail = "" }, "patient_email"},
		{"malformed email", func(r *booking.BookRequest) { r.PatientEmail = "not-an-email" }, "patient_email"},
		{"missing slot", func(r *booking.BookRequest) { r.TimeSlotID = "" }, "time_slot_id"},
		{"zero datetime", func(r *booking.BookRequest) { r.DateTime = time.Time{} }, "date_time"},
		{"past datetime", func(r *booking.BookRequest) { r.DateTime = time.Now().Add(-time.Hour) }, "date_time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.bookRequest()
			tc.mutate(&req)
			_, err := f.service.Book(ctx, req)
			var verr *booking.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want validation error", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields %v missing %q", verr.Fields, tc.field)
			}
		})
	}

	// A failed validation must not touch the slot.
	slot, err := f.store.GetSlot(ctx, f.slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !slot.Available {
		t.Error("slot consumed by rejected requests")
	}
}
