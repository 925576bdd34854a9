package model

import "time"

type Specialization struct {
	ID   string
	Name string
}

type Doctor struct {
	ID               string
	Name             string
	SpecializationID string
	// Specialization is populated on reads that join the reference data.
	Specialization *Specialization
}

// TimeSlot is a bookable interval owned by one doctor. Intervals are
// half-open: [StartTime, EndTime).
type TimeSlot struct {
	ID        string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Available bool
	CreatedAt time.Time
}

// Contains reports whether t falls inside the slot interval.
func (s TimeSlot) Contains(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID       string
	DoctorID string
	// TimeSlotID links the appointment to the slot it was booked against.
	// Empty on rows that predate the explicit linkage; slot restoration
	// then falls back to a time-containment lookup.
	TimeSlotID   string
	PatientName  string
	PatientEmail string
	DateTime     time.Time
	Status       AppointmentStatus
	CreatedAt    time.Time
}
