package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

const appointmentColumns = `id::text, doctor_id::text, COALESCE(time_slot_id::text, ''),
	patient_name, patient_email, date_time, status, created_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(&appt.ID, &appt.DoctorID, &appt.TimeSlotID,
		&appt.PatientName, &appt.PatientEmail, &appt.DateTime, &status, &appt.CreatedAt)
	appt.Status = model.AppointmentStatus(status)
	return appt, err
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (s *PgStore) CreateAppointment(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	appt.ID = uuid.NewString()
	var slotID any
	if appt.TimeSlotID != "" {
		slotID = appt.TimeSlotID
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, time_slot_id, patient_name, patient_email, date_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, appt.ID, appt.DoctorID, slotID, appt.PatientName, appt.PatientEmail,
		appt.DateTime, string(appt.Status)).Scan(&appt.CreatedAt)
	if isForeignKeyViolation(err) {
		return model.Appointment{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *PgStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if badID(id) {
		return model.Appointment{}, notFound("appointment", id)
	}
	appt, err := scanAppointment(s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, notFound("appointment", id)
	}
	return appt, err
}

func (s *PgStore) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+` FROM appointments ORDER BY date_time
	`)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *PgStore) ListAppointmentsByEmail(ctx context.Context, email string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE lower(patient_email) = lower($1)
		ORDER BY date_time
	`, email)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// TransitionAppointment is a guarded status update: the row only changes
// when its current status matches. A scheduled row cancelled twice fails
// the second time with ErrInvalidTransition.
func (s *PgStore) TransitionAppointment(ctx context.Context, id string, from, to model.AppointmentStatus) error {
	if badID(id) {
		return notFound("appointment", id)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments SET status = $3 WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)
		`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return notFound("appointment", id)
		}
		return booking.ErrInvalidTransition
	}
	return nil
}

func (s *PgStore) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	if badID(id) {
		return notFound("appointment", id)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("appointment", id)
	}
	return nil
}

func (s *PgStore) DeleteAppointment(ctx context.Context, id string) error {
	if badID(id) {
		return notFound("appointment", id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("appointment", id)
	}
	return nil
}
