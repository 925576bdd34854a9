package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

// MemoryStore is an in-process Store used by tests and by local runs
// without a DATABASE_URL. A single mutex serializes all access, which
// also gives ClaimSlot its one-winner guarantee.
type MemoryStore struct {
	mu              sync.Mutex
	specializations map[string]model.Specialization
	doctors         map[string]model.Doctor
	slots           map[string]model.TimeSlot
	appointments    map[string]model.Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		specializations: map[string]model.Specialization{},
		doctors:         map[string]model.Doctor{},
		slots:           map[string]model.TimeSlot{},
		appointments:    map[string]model.Appointment{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) ListSpecializations(_ context.Context) ([]model.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	specs := make([]model.Specialization, 0, len(s.specializations))
	for _, sp := range s.specializations {
		specs = append(specs, sp)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

func (s *MemoryStore) CreateSpecialization(_ context.Context, name string) (model.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.specializations {
		if strings.EqualFold(sp.Name, name) {
			return model.Specialization{}, booking.NewValidationError("name", "has already been taken")
		}
	}
	sp := model.Specialization{ID: uuid.NewString(), Name: name}
	s.specializations[sp.ID] = sp
	return sp, nil
}

func (s *MemoryStore) GetSpecialization(_ context.Context, id string) (model.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.specializations[id]
	if !ok {
		return model.Specialization{}, notFound("specialization", id)
	}
	return sp, nil
}

func (s *MemoryStore) UpdateSpecialization(_ context.Context, id, name string) (model.Specialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.specializations[id]
	if !ok {
		return model.Specialization{}, notFound("specialization", id)
	}
	for otherID, other := range s.specializations {
		if otherID != id && strings.EqualFold(other.Name, name) {
			return model.Specialization{}, booking.NewValidationError("name", "has already been taken")
		}
	}
	sp.Name = name
	s.specializations[id] = sp
	return sp, nil
}

func (s *MemoryStore) DeleteSpecialization(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.specializations[id]; !ok {
		return notFound("specialization", id)
	}
	for _, doc := range s.doctors {
		if doc.SpecializationID == id {
			return booking.NewValidationError("id", "specialization is still assigned to doctors")
		}
	}
	delete(s.specializations, id)
	return nil
}

func (s *MemoryStore) withSpecialization(doc model.Doctor) model.Doctor {
	if sp, ok := s.specializations[doc.SpecializationID]; ok {
		doc.Specialization = &sp
	}
	return doc
}

func (s *MemoryStore) ListDoctors(_ context.Context) ([]model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]model.Doctor, 0, len(s.doctors))
	for _, doc := range s.doctors {
		docs = append(docs, s.withSpecialization(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *MemoryStore) SearchDoctors(_ context.Context, query string) ([]model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var docs []model.Doctor
	for _, doc := range s.doctors {
		doc = s.withSpecialization(doc)
		specName := ""
		if doc.Specialization != nil {
			specName = doc.Specialization.Name
		}
		if strings.Contains(strings.ToLower(doc.Name), q) ||
			strings.Contains(strings.ToLower(specName), q) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *MemoryStore) CreateDoctor(_ context.Context, name, specializationID string) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.specializations[specializationID]; !ok {
		return model.Doctor{}, booking.NewValidationError("specialization_id", "does not exist")
	}
	doc := model.Doctor{ID: uuid.NewString(), Name: name, SpecializationID: specializationID}
	s.doctors[doc.ID] = doc
	return s.withSpecialization(doc), nil
}

func (s *MemoryStore) GetDoctor(_ context.Context, id string) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, notFound("doctor", id)
	}
	return s.withSpecialization(doc), nil
}

func (s *MemoryStore) UpdateDoctor(_ context.Context, id, name, specializationID string) (model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.doctors[id]
	if !ok {
		return model.Doctor{}, notFound("doctor", id)
	}
	if _, ok := s.specializations[specializationID]; !ok {
		return model.Doctor{}, booking.NewValidationError("specialization_id", "does not exist")
	}
	doc.Name = name
	doc.SpecializationID = specializationID
	s.doctors[id] = doc
	return s.withSpecialization(doc), nil
}

func (s *MemoryStore) DeleteDoctor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[id]; !ok {
		return notFound("doctor", id)
	}
	delete(s.doctors, id)
	for slotID, slot := range s.slots {
		if slot.DoctorID == id {
			delete(s.slots, slotID)
		}
	}
	return nil
}

func (s *MemoryStore) DoctorExists(_ context.Context, doctorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doctors[doctorID]
	return ok, nil
}

func (s *MemoryStore) ListSlots(_ context.Context) ([]model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]model.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		slots = append(slots, slot)
	}
	sortSlots(slots)
	return slots, nil
}

func (s *MemoryStore) GetSlot(_ context.Context, slotID string) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	return slot, nil
}

func (s *MemoryStore) CreateSlot(_ context.Context, slot model.TimeSlot) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[slot.DoctorID]; !ok {
		return model.TimeSlot{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	slot.ID = uuid.NewString()
	slot.CreatedAt = time.Now()
	s.slots[slot.ID] = slot
	return slot, nil
}

func (s *MemoryStore) CreateSlots(ctx context.Context, slots []model.TimeSlot) ([]model.TimeSlot, error) {
	created := make([]model.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		c, err := s.CreateSlot(ctx, slot)
		if err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	return created, nil
}

func (s *MemoryStore) UpdateSlot(_ context.Context, slot model.TimeSlot) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.slots[slot.ID]
	if !ok {
		return model.TimeSlot{}, notFound("time slot", slot.ID)
	}
	if _, ok := s.doctors[slot.DoctorID]; !ok {
		return model.TimeSlot{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	slot.CreatedAt = existing.CreatedAt
	s.slots[slot.ID] = slot
	return slot, nil
}

func (s *MemoryStore) DeleteSlot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[id]; !ok {
		return notFound("time slot", id)
	}
	delete(s.slots, id)
	return nil
}

func (s *MemoryStore) ListAvailableSlots(_ context.Context, doctorID string, after time.Time) ([]model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slots []model.TimeSlot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && slot.Available && slot.StartTime.After(after) {
			slots = append(slots, slot)
		}
	}
	sortSlots(slots)
	return slots, nil
}

func (s *MemoryStore) ListSlotsOverlapping(_ context.Context, doctorID string, start, end time.Time) ([]model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slots []model.TimeSlot
	for _, slot := range s.slots {
		if slot.DoctorID == doctorID && slot.StartTime.Before(end) && start.Before(slot.EndTime) {
			slots = append(slots, slot)
		}
	}
	sortSlots(slots)
	return slots, nil
}

func (s *MemoryStore) ClaimSlot(_ context.Context, slotID string) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return model.TimeSlot{}, notFound("time slot", slotID)
	}
	if !slot.Available {
		return model.TimeSlot{}, booking.ErrSlotUnavailable
	}
	slot.Available = false
	s.slots[slotID] = slot
	return slot, nil
}

func (s *MemoryStore) SetSlotAvailability(_ context.Context, slotID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return notFound("time slot", slotID)
	}
	slot.Available = available
	s.slots[slotID] = slot
	return nil
}

func (s *MemoryStore) FindSlotContaining(_ context.Context, doctorID string, at time.Time) (model.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.TimeSlot
	for _, slot := range s.slots {
		if slot.DoctorID != doctorID || !slot.Contains(at) {
			continue
		}
		if found == nil || slot.StartTime.Before(found.StartTime) {
			copied := slot
			found = &copied
		}
	}
	if found == nil {
		return model.TimeSlot{}, notFound("time slot for doctor", doctorID)
	}
	return *found, nil
}

func (s *MemoryStore) CreateAppointment(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[appt.DoctorID]; !ok {
		return model.Appointment{}, booking.NewValidationError("doctor_id", "does not exist")
	}
	appt.ID = uuid.NewString()
	appt.CreatedAt = time.Now()
	s.appointments[appt.ID] = appt
	return appt, nil
}

func (s *MemoryStore) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, notFound("appointment", id)
	}
	return appt, nil
}

func (s *MemoryStore) ListAppointments(_ context.Context) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appts := make([]model.Appointment, 0, len(s.appointments))
	for _, appt := range s.appointments {
		appts = append(appts, appt)
	}
	sortAppointments(appts)
	return appts, nil
}

func (s *MemoryStore) ListAppointmentsByEmail(_ context.Context, email string) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var appts []model.Appointment
	for _, appt := range s.appointments {
		if strings.EqualFold(appt.PatientEmail, email) {
			appts = append(appts, appt)
		}
	}
	sortAppointments(appts)
	return appts, nil
}

func (s *MemoryStore) TransitionAppointment(_ context.Context, id string, from, to model.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return notFound("appointment", id)
	}
	if appt.Status != from {
		return booking.ErrInvalidTransition
	}
	appt.Status = to
	s.appointments[id] = appt
	return nil
}

func (s *MemoryStore) UpdateAppointmentStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return notFound("appointment", id)
	}
	appt.Status = status
	s.appointments[id] = appt
	return nil
}

func (s *MemoryStore) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return notFound("appointment", id)
	}
	delete(s.appointments, id)
	return nil
}

func sortSlots(slots []model.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
}

func sortAppointments(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].DateTime.Before(appts[j].DateTime) })
}
