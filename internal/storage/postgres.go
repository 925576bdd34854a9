package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/libs/db"
)

// PgStore implements Store on Postgres.
type PgStore struct {
	pool *db.Pool
}

func NewPgStore(pool *db.Pool) *PgStore {
	return &PgStore{pool: pool}
}

var _ Store = (*PgStore)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, booking.ErrNotFound)
}

// badID guards uuid columns: a malformed id can never match a row, so it
// reads as not-found instead of a postgres type error.
func badID(id string) bool {
	return uuid.Validate(id) != nil
}

func (s *PgStore) ListSpecializations(ctx context.Context) ([]model.Specialization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, name
		FROM specializations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []model.Specialization
	for rows.Next() {
		var sp model.Specialization
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, err
		}
		specs = append(specs, sp)
	}
	return specs, rows.Err()
}

func (s *PgStore) CreateSpecialization(ctx context.Context, name string) (model.Specialization, error) {
	sp := model.Specialization{ID: uuid.NewString(), Name: name}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO specializations (id, name) VALUES ($1, $2)
	`, sp.ID, sp.Name)
	if isUniqueViolation(err) {
		return model.Specialization{}, booking.NewValidationError("name", "has already been taken")
	}
	if err != nil {
		return model.Specialization{}, err
	}
	return sp, nil
}

func (s *PgStore) GetSpecialization(ctx context.Context, id string) (model.Specialization, error) {
	if badID(id) {
		return model.Specialization{}, notFound("specialization", id)
	}
	var sp model.Specialization
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, name FROM specializations WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Specialization{}, notFound("specialization", id)
	}
	return sp, err
}

func (s *PgStore) UpdateSpecialization(ctx context.Context, id, name string) (model.Specialization, error) {
	if badID(id) {
		return model.Specialization{}, notFound("specialization", id)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE specializations SET name = $2 WHERE id = $1
	`, id, name)
	if isUniqueViolation(err) {
		return model.Specialization{}, booking.NewValidationError("name", "has already been taken")
	}
	if err != nil {
		return model.Specialization{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Specialization{}, notFound("specialization", id)
	}
	return model.Specialization{ID: id, Name: name}, nil
}

func (s *PgStore) DeleteSpecialization(ctx context.Context, id string) error {
	if badID(id) {
		return notFound("specialization", id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM specializations WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return booking.NewValidationError("id", "specialization is still assigned to doctors")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("specialization", id)
	}
	return nil
}

const doctorColumns = `d.id::text, d.name, d.specialization_id::text, s.name`

func scanDoctor(row pgx.Row) (model.Doctor, error) {
	var doc model.Doctor
	var specName string
	if err := row.Scan(&doc.ID, &doc.Name, &doc.SpecializationID, &specName); err != nil {
		return model.Doctor{}, err
	}
	doc.Specialization = &model.Specialization{ID: doc.SpecializationID, Name: specName}
	return doc, nil
}

func (s *PgStore) collectDoctors(rows pgx.Rows) ([]model.Doctor, error) {
	defer rows.Close()
	var docs []model.Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PgStore) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN specializations s ON s.id = d.specialization_id
		ORDER BY d.name
	`)
	if err != nil {
		return nil, err
	}
	return s.collectDoctors(rows)
}

func (s *PgStore) SearchDoctors(ctx context.Context, query string) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN specializations s ON s.id = d.specialization_id
		WHERE d.name ILIKE '%' || $1 || '%' OR s.name ILIKE '%' || $1 || '%'
		ORDER BY d.name
	`, query)
	if err != nil {
		return nil, err
	}
	return s.collectDoctors(rows)
}

func (s *PgStore) CreateDoctor(ctx context.Context, name, specializationID string) (model.Doctor, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization_id) VALUES ($1, $2, $3)
	`, id, name, specializationID)
	if isForeignKeyViolation(err) {
		return model.Doctor{}, booking.NewValidationError("specialization_id", "does not exist")
	}
	if err != nil {
		return model.Doctor{}, err
	}
	return s.GetDoctor(ctx, id)
}

func (s *PgStore) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	if badID(id) {
		return model.Doctor{}, notFound("doctor", id)
	}
	doc, err := scanDoctor(s.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN specializations s ON s.id = d.specialization_id
		WHERE d.id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Doctor{}, notFound("doctor", id)
	}
	return doc, err
}

func (s *PgStore) UpdateDoctor(ctx context.Context, id, name, specializationID string) (model.Doctor, error) {
	if badID(id) {
		return model.Doctor{}, notFound("doctor", id)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE doctors SET name = $2, specialization_id = $3 WHERE id = $1
	`, id, name, specializationID)
	if isForeignKeyViolation(err) {
		return model.Doctor{}, booking.NewValidationError("specialization_id", "does not exist")
	}
	if err != nil {
		return model.Doctor{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Doctor{}, notFound("doctor", id)
	}
	return s.GetDoctor(ctx, id)
}

func (s *PgStore) DeleteDoctor(ctx context.Context, id string) error {
	if badID(id) {
		return notFound("doctor", id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound("doctor", id)
	}
	return nil
}

func (s *PgStore) DoctorExists(ctx context.Context, doctorID string) (bool, error) {
	if badID(doctorID) {
		return false, nil
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)
	`, doctorID).Scan(&exists)
	return exists, err
}
