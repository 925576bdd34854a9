package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

const slotColumns = `id::text, doctor_id::text, start_time, end_time, is_available, created_at`

func scanSlot(row pgx.Row) (model.TimeSlot, error) {
	var slot model.TimeSlot
	err := row.Scan(&slot.ID, &slot.DoctorID, &slot.StartTime, &slot.EndTime, &slot.Available, &slot.CreatedAt)
	return slot, err
}

func collectSlots(rows pgx.Rows) ([]model.TimeSlot, error) {
	defer rows.Close()
	var slots []model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *PgStore) ListSlots(ctx context.Context) ([]model.TimeSlot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+` FROM time_slots ORDER BY start_time
	`)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (s *PgStore) GetSlot(ctx context.Context, slotID string) (model.TimeSlot, error) {
	if badID(slotID) {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	slot, err := scanSlot(s.pool.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM time_slots WHERE id = $1
	`, slotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	return slot, err
}

func (s *PgStore) CreateSlot(ctx context.Context, slot model.TimeSlot) (model.TimeSlot, error) {
	slot.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO time_slots (id, doctor_id, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, slot.ID, slot.DoctorID, slot.StartTime, slot.EndTime, slot.Available).Scan(&slot.CreatedAt)
	if isForeignKeyViolation(err) {
		return model.TimeSlot{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	if err != nil {
		return model.TimeSlot{}, err
	}
	return slot, nil
}

// CreateSlots persists a generated batch, one insert per slot inside a
// single transaction so a failure leaves nothing behind.
func (s *PgStore) CreateSlots(ctx context.Context, slots []model.TimeSlot) ([]model.TimeSlot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := make([]model.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		slot.ID = uuid.NewString()
		err := tx.QueryRow(ctx, `
			INSERT INTO time_slots (id, doctor_id, start_time, end_time, is_available)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, slot.ID, slot.DoctorID, slot.StartTime, slot.EndTime, slot.Available).Scan(&slot.CreatedAt)
		if err != nil {
			return nil, err
		}
		created = append(created, slot)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PgStore) UpdateSlot(ctx context.Context, slot model.TimeSlot) (model.TimeSlot, error) {
	if badID(slot.ID) {
		return model.TimeSlot{}, notFound("time slot", slot.ID)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE time_slots
		SET doctor_id = $2, start_time = $3, end_time = $4, is_available = $5
		WHERE id = $1
	`, slot.ID, slot.DoctorID, slot.StartTime, slot.EndTime, slot.Available)
	if isForeignKeyViolation(err) {
		return model.TimeSlot{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	if err != nil {
		return model.TimeSlot{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.TimeSlot{}, notFound("time slot", slot.ID)
	}
	return s.GetSlot(ctx, slot.ID)
}

func (s *PgStore) DeleteSlot(ctx context.Context, id string) error {
	if badID(id) {
		return notFound("time slot", id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("time slot", id)
	}
	return nil
}

func (s *PgStore) ListAvailableSlots(ctx context.Context, doctorID string, after time.Time) ([]model.TimeSlot, error) {
	if badID(doctorID) {
		return nil, notFound("doctor", doctorID)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE doctor_id = $1 AND is_available AND start_time > $2
		ORDER BY start_time
	`, doctorID, after)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (s *PgStore) ListSlotsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.TimeSlot, error) {
	if badID(doctorID) {
		return nil, notFound("doctor", doctorID)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE doctor_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

// ClaimSlot serializes the check-then-set on the availability flag with a
// row lock, so concurrent bookings of the same slot see exactly one winner.
func (s *PgStore) ClaimSlot(ctx context.Context, slotID string) (model.TimeSlot, error) {
	if badID(slotID) {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.TimeSlot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	slot, err := scanSlot(tx.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM time_slots WHERE id = $1 FOR UPDATE
	`, slotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	if err != nil {
		return model.TimeSlot{}, err
	}
	if !slot.Available {
		return model.TimeSlot{}, booking.ErrSlotUnavailable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE time_slots SET is_available = false WHERE id = $1
	`, slotID); err != nil {
		return model.TimeSlot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TimeSlot{}, err
	}
	slot.Available = false
	return slot, nil
}

func (s *PgStore) SetSlotAvailability(ctx context.Context, slotID string, available bool) error {
	if badID(slotID) {
		return notFound("time slot", slotID)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE time_slots SET is_available = $2 WHERE id = $1
	`, slotID, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("time slot", slotID)
	}
	return nil
}

func (s *PgStore) FindSlotContaining(ctx context.Context, doctorID string, at time.Time) (model.TimeSlot, error) {
	if badID(doctorID) {
		return model.TimeSlot{}, notFound("doctor", doctorID)
	}
	slot, err := scanSlot(s.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE doctor_id = $1 AND start_time <= $2 AND end_time > $2
		ORDER BY start_time
		LIMIT 1
	`, doctorID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TimeSlot{}, notFound("time slot for doctor", doctorID)
	}
	return slot, err
}
