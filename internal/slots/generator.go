package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

// Slot duration bounds in minutes.
const (
	MinDuration = 15
	MaxDuration = 120
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// Sequence emits candidate intervals for one day: starting at
// day@startHour:00 it appends [cursor, cursor+duration) and advances the
// cursor by duration while cursor < day@endHour:00. The final interval may
// extend past endHour when the duration does not divide the range evenly;
// that overrun is deliberate and must not be clamped.
func Sequence(day time.Time, startHour, endHour, durationMinutes int) []Interval {
	cursor := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	rangeEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, day.Location())
	duration := time.Duration(durationMinutes) * time.Minute

	var out []Interval
	for cursor.Before(rangeEnd) {
		out = append(out, Interval{Start: cursor, End: cursor.Add(duration)})
		cursor = cursor.Add(duration)
	}
	return out
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Store is the persistence surface the generator needs.
type Store interface {
	DoctorExists(ctx context.Context, doctorID string) (bool, error)
	ListSlotsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.TimeSlot, error)
	CreateSlots(ctx context.Context, slots []model.TimeSlot) ([]model.TimeSlot, error)
}

type Params struct {
	DoctorID        string
	Date            time.Time // day at midnight in the clinic's location
	StartHour       int
	EndHour         int
	DurationMinutes int
}

type Generator struct {
	store Store
	now   func() time.Time
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store, now: time.Now}
}

// Generate persists and returns a non-overlapping run of available slots
// for one doctor and day. The whole batch is rejected with ErrSlotOverlap
// when any candidate would intersect a slot the doctor already has.
func (g *Generator) Generate(ctx context.Context, p Params) ([]model.TimeSlot, error) {
	if err := g.validate(p); err != nil {
		return nil, err
	}

	ok, err := g.store.DoctorExists(ctx, p.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("doctor %s: %w", p.DoctorID, booking.ErrNotFound)
	}

	intervals := Sequence(p.Date, p.StartHour, p.EndHour, p.DurationMinutes)
	if len(intervals) == 0 {
		return nil, nil
	}

	existing, err := g.store.ListSlotsOverlapping(ctx, p.DoctorID, intervals[0].Start, intervals[len(intervals)-1].End)
	if err != nil {
		return nil, err
	}
	for _, iv := range intervals {
		for _, s := range existing {
			if Overlaps(iv.Start, iv.End, s.StartTime, s.EndTime) {
				return nil, fmt.Errorf("slot %s/%s: %w",
					iv.Start.Format(time.RFC3339), s.ID, booking.ErrSlotOverlap)
			}
		}
	}

	batch := make([]model.TimeSlot, 0, len(intervals))
	for _, iv := range intervals {
		batch = append(batch, model.TimeSlot{
			DoctorID:  p.DoctorID,
			StartTime: iv.Start,
			EndTime:   iv.End,
			Available: true,
		})
	}
	return g.store.CreateSlots(ctx, batch)
}

func (g *Generator) validate(p Params) error {
	fields := map[string]string{}
	if p.DoctorID == "" {
		fields["doctor_id"] = "required"
	}
	if p.StartHour < 0 || p.StartHour > 23 {
		fields["start_hour"] = "must be between 0 and 23"
	}
	if p.EndHour < 0 || p.EndHour > 23 {
		fields["end_hour"] = "must be between 0 and 23"
	} else if p.EndHour <= p.StartHour {
		fields["end_hour"] = "must be greater than start_hour"
	}
	if p.DurationMinutes < MinDuration || p.DurationMinutes > MaxDuration {
		fields["slot_duration"] = fmt.Sprintf("must be between %d and %d minutes", MinDuration, MaxDuration)
	}
	if p.Date.IsZero() {
		fields["date"] = "required"
	} else if !p.Date.After(g.now()) {
		fields["date"] = "must be in the future"
	}
	if len(fields) > 0 {
		return &booking.ValidationError{Fields: fields}
	}
	return nil
}
