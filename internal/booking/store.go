package booking

import (
	"context"
	"time"

	"github.com/termiplan/termiplan/internal/model"
)

// Store is the persistence surface the reservation engine and lifecycle
// manager depend on. The Postgres and in-memory stores both satisfy it.
type Store interface {
	DoctorExists(ctx context.Context, doctorID string) (bool, error)

	GetSlot(ctx context.Context, slotID string) (model.TimeSlot, error)
	// ClaimSlot flips an available slot to unavailable as one atomic
	// check-then-set. Concurrent claims on the same slot are serialized;
	// the loser gets ErrSlotUnavailable.
	ClaimSlot(ctx context.Context, slotID string) (model.TimeSlot, error)
	SetSlotAvailability(ctx context.Context, slotID string, available bool) error
	// FindSlotContaining returns the doctor's slot whose [start,end)
	// interval contains at, or ErrNotFound.
	FindSlotContaining(ctx context.Context, doctorID string, at time.Time) (model.TimeSlot, error)

	CreateAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// TransitionAppointment updates the status only when the current
	// status equals from; otherwise ErrInvalidTransition.
	TransitionAppointment(ctx context.Context, id string, from, to model.AppointmentStatus) error
	UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	DeleteAppointment(ctx context.Context, id string) error
}
