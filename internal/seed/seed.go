// Package seed loads demo reference data for local development: a set of
// specializations, a doctor per specialization, and a week of bookable
// slots. Running it against a non-empty database is a no-op.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/storage"
)

var specializationNames = []string{
	"Allgemeinmedizin",
	"Kardiologie",
	"Dermatologie",
	"Neurologie",
	"Orthopädie",
	"Psychiatrie",
	"Gynäkologie",
	"Urologie",
	"Pädiatrie",
	"Augenheilkunde",
}

var doctorNames = []string{
	"Dr. Anna Schmidt",
	"Dr. Michael Weber",
	"Dr. Julia Fischer",
	"Dr. Thomas Becker",
	"Dr. Laura Hoffmann",
	"Dr. Stefan Wagner",
	"Dr. Katharina Schulz",
	"Dr. Daniel Richter",
	"Dr. Sophie Klein",
	"Dr. Markus Braun",
}

// Morning and afternoon blocks, split into 30-minute slots.
var blocks = []struct{ startHour, endHour int }{
	{9, 12},
	{14, 17},
}

const slotMinutes = 30

// Run populates the store with demo data unless specializations already
// exist.
func Run(ctx context.Context, store storage.Store, logger *slog.Logger) error {
	existing, err := store.ListSpecializations(ctx)
	if err != nil {
		return fmt.Errorf("seed: list specializations: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("seed skipped, data already present", "specializations", len(existing))
		return nil
	}

	today := time.Now().Truncate(24 * time.Hour)
	var doctors, slots int
	for i, name := range specializationNames {
		sp, err := store.CreateSpecialization(ctx, name)
		if err != nil {
			return fmt.Errorf("seed: create specialization %q: %w", name, err)
		}
		doc, err := store.CreateDoctor(ctx, doctorNames[i], sp.ID)
		if err != nil {
			return fmt.Errorf("seed: create doctor %q: %w", doctorNames[i], err)
		}
		doctors++

		batch := weekOfSlots(doc.ID, today)
		if _, err := store.CreateSlots(ctx, batch); err != nil {
			return fmt.Errorf("seed: create slots for %q: %w", doctorNames[i], err)
		}
		slots += len(batch)
	}

	logger.Info("seed complete",
		"specializations", len(specializationNames), "doctors", doctors, "slots", slots)
	return nil
}

func weekOfSlots(doctorID string, from time.Time) []model.TimeSlot {
	var out []model.TimeSlot
	for day := 0; day < 7; day++ {
		date := from.AddDate(0, 0, day)
		for _, b := range blocks {
			cursor := time.Date(date.Year(), date.Month(), date.Day(), b.startHour, 0, 0, 0, date.Location())
			end := time.Date(date.Year(), date.Month(), date.Day(), b.endHour, 0, 0, 0, date.Location())
			for cursor.Before(end) {
				next := cursor.Add(slotMinutes * time.Minute)
				out = append(out, model.TimeSlot{
					DoctorID:  doctorID,
					StartTime: cursor,
					EndTime:   next,
					Available: true,
				})
				cursor = next
			}
		}
	}
	return out
}
