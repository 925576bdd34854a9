package storage

import (
	"context"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

// Store is the full persistence surface of the service: the reservation
// engine's needs plus the reference-data and listing operations the HTTP
// layer exposes. PgStore and MemoryStore both implement it.
type Store interface {
	booking.Store

	ListSpecializations(ctx context.Context) ([]model.Specialization, error)
	CreateSpecialization(ctx context.Context, name string) (model.Specialization, error)
	GetSpecialization(ctx context.Context, id string) (model.Specialization, error)
	UpdateSpecialization(ctx context.Context, id, name string) (model.Specialization, error)
	DeleteSpecialization(ctx context.Context, id string) error

	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	// SearchDoctors matches the query case-insensitively against doctor
	// names and specialization names.
	SearchDoctors(ctx context.Context, query string) ([]model.Doctor, error)
	CreateDoctor(ctx context.Context, name, specializationID string) (model.Doctor, error)
	GetDoctor(ctx context.Context, id string) (model.Doctor, error)
	UpdateDoctor(ctx context.Context, id, name, specializationID string) (model.Doctor, error)
	DeleteDoctor(ctx context.Context, id string) error

	ListSlots(ctx context.Context) ([]model.TimeSlot, error)
	CreateSlot(ctx context.Context, slot model.TimeSlot) (model.TimeSlot, error)
	CreateSlots(ctx context.Context, slots []model.TimeSlot) ([]model.TimeSlot, error)
	UpdateSlot(ctx context.Context, slot model.TimeSlot) (model.TimeSlot, error)
	DeleteSlot(ctx context.Context, id string) error
	// ListAvailableSlots returns the doctor's free slots starting after
	// the given instant, ordered by start time ascending.
	ListAvailableSlots(ctx context.Context, doctorID string, after time.Time) ([]model.TimeSlot, error)
	ListSlotsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.TimeSlot, error)

	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]model.Appointment, error)
}
