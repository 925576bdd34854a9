package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/notify"
	"github.com/termiplan/termiplan/internal/outbox"
)

// EventSink receives domain events after state transitions. Append
// failures never roll a booking back; they are logged and swallowed.
type EventSink interface {
	Append(ctx context.Context, evt outbox.Event) error
}

// Service is the reservation engine and appointment lifecycle manager.
type Service struct {
	store    Store
	notifier notify.Notifier
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, notifier notify.Notifier, events EventSink, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

type BookRequest struct {
	DoctorID     string
	PatientName  string
	PatientEmail string
	DateTime     time.Time
	TimeSlotID   string
}

// Book reserves a slot: it validates the request, atomically claims the
// slot's availability flag, and records the appointment as scheduled.
// The slot is trusted to correspond to DateTime; the two are not
// cross-validated. Confirmation delivery is best-effort and never undoes
// a completed reservation.
func (s *Service) Book(ctx context.Context, req BookRequest) (model.Appointment, error) {
	if err := s.validateBook(req); err != nil {
		return model.Appointment{}, err
	}

	ok, err := s.store.DoctorExists(ctx, req.DoctorID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, fmt.Errorf("doctor %s: %w", req.DoctorID, ErrNotFound)
	}

	slot, err := s.store.ClaimSlot(ctx, req.TimeSlotID)
	if err != nil {
		return model.Appointment{}, err
	}

	appt, err := s.store.CreateAppointment(ctx, model.Appointment{
		DoctorID:     req.DoctorID,
		TimeSlotID:   slot.ID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		DateTime:     req.DateTime,
		Status:       model.StatusScheduled,
	})
	if err != nil {
		// Give the claimed slot back so the failed booking does not
		// leave it permanently blocked.
		if relErr := s.store.SetSlotAvailability(ctx, slot.ID, true); relErr != nil {
			s.logger.Error("slot release after failed booking", "slot_id", slot.ID, "err", relErr)
		}
		return model.Appointment{}, err
	}

	s.emit(ctx, outbox.EventAppointmentBooked, appt)
	if err := s.notifier.Notify(ctx, appt); err != nil {
		s.logger.Warn("confirmation notification failed", "appointment_id", appt.ID, "err", err)
	}
	return appt, nil
}

func (s *Service) validateBook(req BookRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.DoctorID) == "" {
		fields["doctor_id"] = "required"
	}

	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		fields["patient_name"] = "required"
	} else if len(name) > 255 {
		fields["patient_name"] = "must not exceed 255 characters"
	}

	email := strings.TrimSpace(req.PatientEmail)
	if email == "" {
		fields["patient_email"] = "required"
	} else if _, err := mail.ParseAddress(email); err != nil || len(email) > 255 {
		fields["patient_email"] = "must be a valid email address"
	}

	if req.DateTime.IsZero() {
		fields["date_time"] = "required"
	} else if !req.DateTime.After(s.now()) {
		fields["date_time"] = "must be in the future"
	}

	if strings.TrimSpace(req.TimeSlotID) == "" {
		fields["time_slot_id"] = "required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, appt model.Appointment) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"doctor_id":      appt.DoctorID,
		"time_slot_id":   appt.TimeSlotID,
		"patient_email":  appt.PatientEmail,
		"date_time":      appt.DateTime.UTC().Format(time.RFC3339),
		"status":         string(appt.Status),
	})
	if err != nil {
		s.logger.Error("event payload marshal", "err", err)
		return
	}
	if err := s.events.Append(ctx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		s.logger.Error("outbox append failed", "event_type", eventType, "appointment_id", appt.ID, "err", err)
	}
}
