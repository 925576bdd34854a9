package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/outbox"
)

// Cancel moves a scheduled appointment to cancelled and restores the
// booked slot's availability. Slot restoration is best-effort: a missing
// slot does not fail the cancellation.
func (s *Service) Cancel(ctx context.Context, appointmentID string) (model.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}

	if err := s.store.TransitionAppointment(ctx, appointmentID, model.StatusScheduled, model.StatusCancelled); err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.StatusCancelled

	s.restoreSlot(ctx, appt)
	s.emit(ctx, outbox.EventAppointmentCancelled, appt)
	return appt, nil
}

// Delete removes the appointment record. A scheduled appointment first
// gets its slot restored; deleting a completed or cancelled appointment
// never touches slot state.
func (s *Service) Delete(ctx context.Context, appointmentID string) error {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status == model.StatusScheduled {
		s.restoreSlot(ctx, appt)
	}
	return s.store.DeleteAppointment(ctx, appointmentID)
}

// UpdateStatus sets the status directly with no slot side effects. Only
// Cancel restores availability; a direct update to cancelled deliberately
// does not.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) (model.Appointment, error) {
	if !status.Valid() {
		return model.Appointment{}, NewValidationError("status", "must be one of scheduled, completed, cancelled")
	}
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		return model.Appointment{}, err
	}
	appt.Status = status
	return appt, nil
}

// restoreSlot flips the appointment's slot back to available. The explicit
// slot reference is preferred; rows without one fall back to finding the
// doctor's slot whose interval contains the appointment time.
func (s *Service) restoreSlot(ctx context.Context, appt model.Appointment) {
	slotID := appt.TimeSlotID
	if slotID == "" {
		slot, err := s.store.FindSlotContaining(ctx, appt.DoctorID, appt.DateTime)
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("no slot found to restore",
				"appointment_id", appt.ID, "doctor_id", appt.DoctorID, "date_time", appt.DateTime)
			return
		}
		if err != nil {
			s.logger.Error("slot lookup for restore", "appointment_id", appt.ID, "err", err)
			return
		}
		slotID = slot.ID
	}

	if err := s.store.SetSlotAvailability(ctx, slotID, true); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("slot restore", "slot_id", slotID, "err", fmt.Errorf("set availability: %w", err))
	}
}
