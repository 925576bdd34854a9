package slots_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/slots"
	"github.com/termiplan/termiplan/internal/storage"
)

func seedDoctor(t *testing.T, store *storage.MemoryStore) model.Doctor {
	t.Helper()
	ctx := context.Background()
	sp, err := store.CreateSpecialization(ctx, "Kardiologie")
	if err != nil {
		t.Fatalf("create specialization: %v", err)
	}
	doc, err := store.CreateDoctor(ctx, "Dr. Anna Schmidt", sp.ID)
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return doc
}

func tomorrow() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func TestSequenceEvenSplit(t *testing.T) {
	day := tomorrow()
	got := slots.Sequence(day, 9, 12, 30)
	if len(got) != 6 {
		t.Fatalf("got %d intervals, want 6", len(got))
	}
	for i, iv := range got {
		if iv.End.Sub(iv.Start) != 30*time.Minute {
			t.Errorf("interval %d duration = %s, want 30m", i, iv.End.Sub(iv.Start))
		}
		if i > 0 && !got[i-1].End.Equal(iv.Start) {
			t.Errorf("interval %d does not start where %d ends", i, i-1)
		}
	}
	wantFirst := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	if !got[0].Start.Equal(wantFirst) {
		t.Errorf("first start = %s, want %s", got[0].Start, wantFirst)
	}
	wantLast := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
	if !got[5].End.Equal(wantLast) {
		t.Errorf("last end = %s, want %s", got[5].End, wantLast)
	}
}

func TestSequenceFinalSlotOverruns(t *testing.T) {
	day := tomorrow()
	got := slots.Sequence(day, 9, 10, 20)
	if len(got) != 3 {
		t.Fatalf("got %d intervals, want 3", len(got))
	}
	wantEnd := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
	if !got[2].End.Equal(wantEnd) {
		t.Errorf("last end = %s, want %s", got[2].End, wantEnd)
	}

	// 25-minute slices of a one-hour range: the third slot runs past the
	// end hour and is kept.
	got = slots.Sequence(day, 9, 10, 25)
	if len(got) != 3 {
		t.Fatalf("got %d intervals, want 3", len(got))
	}
	wantEnd = time.Date(day.Year(), day.Month(), day.Day(), 10, 15, 0, 0, time.UTC)
	if !got[2].End.Equal(wantEnd) {
		t.Errorf("overrunning end = %s, want %s", got[2].End, wantEnd)
	}
}

func TestGenerateCreatesAvailableSlots(t *testing.T) {
	store := storage.NewMemoryStore()
	doc := seedDoctor(t, store)
	gen := slots.NewGenerator(store)

	created, err := gen.Generate(context.Background(), slots.Params{
		DoctorID:        doc.ID,
		Date:            tomorrow(),
		StartHour:       9,
		EndHour:         12,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("created %d slots, want 6", len(created))
	}
	for i, s := range created {
		if s.ID == "" {
			t.Errorf("slot %d has no id", i)
		}
		if !s.Available {
			t.Errorf("slot %d not available", i)
		}
		if s.DoctorID != doc.ID {
			t.Errorf("slot %d doctor = %s, want %s", i, s.DoctorID, doc.ID)
		}
		if i > 0 && created[i].StartTime.Before(created[i-1].EndTime) {
			t.Errorf("slot %d overlaps its predecessor", i)
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	store := storage.NewMemoryStore()
	doc := seedDoctor(t, store)
	gen := slots.NewGenerator(store)
	ctx := context.Background()

	cases := []struct {
		name   string
		params slots.Params
		field  string
	}{
		{
			name:   "missing doctor",
			params: slots.Params{Date: tomorrow(), StartHour: 9, EndHour: 12, DurationMinutes: 30},
			field:  "doctor_id",
		},
		{
			name:   "end before start",
			params: slots.Params{DoctorID: doc.ID, Date: tomorrow(), StartHour: 12, EndHour: 9, DurationMinutes: 30},
			field:  "end_hour",
		},
		{
			name:   "duration too short",
			params: slots.Params{DoctorID: doc.ID, Date: tomorrow(), StartHour: 9, EndHour: 12, DurationMinutes: 10},
			field:  "slot_duration",
		},
		{
			name:   "duration too long",
			params: slots.Params{DoctorID: doc.ID, Date: tomorrow(), StartHour: 9, EndHour: 12, DurationMinutes: 180},
			field:  "slot_duration",
		},
		{
			name:   "past date",
			params: slots.Params{DoctorID: doc.ID, Date: tomorrow().AddDate(0, 0, -7), StartHour: 9, EndHour: 12, DurationMinutes: 30},
			field:  "date",
		},
		{
			name:   "hour out of range",
			params: slots.Params{DoctorID: doc.ID, Date: tomorrow(), StartHour: -1, EndHour: 12, DurationMinutes: 30},
			field:  "start_hour",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gen.Generate(ctx, tc.params)
			var verr *booking.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want validation error", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields %v missing %q", verr.Fields, tc.field)
			}
		})
	}
}

func TestGenerateUnknownDoctor(t *testing.T) {
	store := storage.NewMemoryStore()
	gen := slots.NewGenerator(store)

	_, err := gen.Generate(context.Background(), slots.Params{
		DoctorID:        "ffffffff-ffff-4fff-8fff-ffffffffffff",
		Date:            tomorrow(),
		StartHour:       9,
		EndHour:         12,
		DurationMinutes: 30,
	})
	if !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGenerateRejectsOverlappingBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	doc := seedDoctor(t, store)
	gen := slots.NewGenerator(store)
	ctx := context.Background()

	day := tomorrow()
	existing := model.TimeSlot{
		DoctorID:  doc.ID,
		StartTime: time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(day.Year(), day.Month(), day.Day(), 10, 30, 0, 0, time.UTC),
		Available: true,
	}
	if _, err := store.CreateSlot(ctx, existing); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	_, err := gen.Generate(ctx, slots.Params{
		DoctorID:        doc.ID,
		Date:            day,
		StartHour:       9,
		EndHour:         12,
		DurationMinutes: 30,
	})
	if !errors.Is(err, booking.ErrSlotOverlap) {
		t.Fatalf("got %v, want ErrSlotOverlap", err)
	}

	// Nothing from the rejected batch may have been written.
	all, err := store.ListSlots(ctx)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("store has %d slots after rejected batch, want 1", len(all))
	}

	// An adjacent range is fine: [12,14) touches nothing.
	created, err := gen.Generate(ctx, slots.Params{
		DoctorID:        doc.ID,
		Date:            day,
		StartHour:       12,
		EndHour:         14,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("adjacent generate: %v", err)
	}
	if len(created) != 4 {
		t.Errorf("created %d adjacent slots, want 4", len(created))
	}
}
