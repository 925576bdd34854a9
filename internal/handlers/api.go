package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/slots"
	"github.com/termiplan/termiplan/internal/storage"
)

// API exposes the booking core and reference data over HTTP/JSON.
type API struct {
	store     storage.Store
	reserving *booking.Service
	generator *slots.Generator
	logger    *slog.Logger
}

func New(store storage.Store, reserving *booking.Service, generator *slots.Generator, logger *slog.Logger) *API {
	return &API{
		store:     store,
		reserving: reserving,
		generator: generator,
		logger:    logger,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/specializations", a.listSpecializations)
	mux.HandleFunc("POST /api/v1/specializations", a.createSpecialization)
	mux.HandleFunc("GET /api/v1/specializations/{id}", a.getSpecialization)
	mux.HandleFunc("PUT /api/v1/specializations/{id}", a.updateSpecialization)
	mux.HandleFunc("DELETE /api/v1/specializations/{id}", a.deleteSpecialization)

	mux.HandleFunc("GET /api/v1/doctors", a.listDoctors)
	mux.HandleFunc("POST /api/v1/doctors", a.createDoctor)
	mux.HandleFunc("GET /api/v1/doctors/{id}", a.getDoctor)
	mux.HandleFunc("PUT /api/v1/doctors/{id}", a.updateDoctor)
	mux.HandleFunc("DELETE /api/v1/doctors/{id}", a.deleteDoctor)
	mux.HandleFunc("GET /api/v1/doctors/{id}/slots", a.listDoctorSlots)

	mux.HandleFunc("GET /api/v1/slots", a.listSlots)
	mux.HandleFunc("POST /api/v1/slots", a.createSlot)
	mux.HandleFunc("POST /api/v1/slots/generate", a.generateSlots)
	mux.HandleFunc("GET /api/v1/slots/{id}", a.getSlot)
	mux.HandleFunc("PUT /api/v1/slots/{id}", a.updateSlot)
	mux.HandleFunc("DELETE /api/v1/slots/{id}", a.deleteSlot)
	mux.HandleFunc("GET /api/v1/slots/{id}/availability", a.slotAvailability)

	mux.HandleFunc("GET /api/v1/appointments", a.listAppointments)
	mux.HandleFunc("POST /api/v1/appointments", a.createAppointment)
	mux.HandleFunc("GET /api/v1/appointments/{id}", a.getAppointment)
	mux.HandleFunc("PATCH /api/v1/appointments/{id}", a.updateAppointmentStatus)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", a.deleteAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/cancel", a.cancelAppointment)
}

type specializationItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type doctorItem struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	SpecializationID string              `json:"specialization_id"`
	Specialization   *specializationItem `json:"specialization,omitempty"`
}

type slotItem struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctor_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type appointmentItem struct {
	ID           string `json:"id"`
	DoctorID     string `json:"doctor_id"`
	TimeSlotID   string `json:"time_slot_id,omitempty"`
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	DateTime     string `json:"date_time"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func specializationToItem(sp model.Specialization) specializationItem {
	return specializationItem{ID: sp.ID, Name: sp.Name}
}

func doctorToItem(doc model.Doctor) doctorItem {
	item := doctorItem{ID: doc.ID, Name: doc.Name, SpecializationID: doc.SpecializationID}
	if doc.Specialization != nil {
		sp := specializationToItem(*doc.Specialization)
		item.Specialization = &sp
	}
	return item
}

func slotToItem(slot model.TimeSlot) slotItem {
	item := slotItem{
		ID:          slot.ID,
		DoctorID:    slot.DoctorID,
		StartTime:   slot.StartTime.UTC().Format(time.RFC3339),
		EndTime:     slot.EndTime.UTC().Format(time.RFC3339),
		IsAvailable: slot.Available,
	}
	if !slot.CreatedAt.IsZero() {
		item.CreatedAt = slot.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func appointmentToItem(appt model.Appointment) appointmentItem {
	item := appointmentItem{
		ID:           appt.ID,
		DoctorID:     appt.DoctorID,
		TimeSlotID:   appt.TimeSlotID,
		PatientName:  appt.PatientName,
		PatientEmail: appt.PatientEmail,
		DateTime:     appt.DateTime.UTC().Format(time.RFC3339),
		Status:       string(appt.Status),
	}
	if !appt.CreatedAt.IsZero() {
		item.CreatedAt = appt.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}
