package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

type appointmentRequest struct {
	DoctorID     string `json:"doctor_id"`
	TimeSlotID   string `json:"time_slot_id"`
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	DateTime     string `json:"date_time"`
}

type appointmentStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) listAppointments(w http.ResponseWriter, r *http.Request) {
	var err error
	var appts []model.Appointment
	if email := strings.TrimSpace(r.URL.Query().Get("patient_email")); email != "" {
		appts, err = a.store.ListAppointmentsByEmail(r.Context(), email)
	} else {
		appts, err = a.store.ListAppointments(r.Context())
	}
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentToItem(appt))
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var dt time.Time
	if req.DateTime != "" {
		t, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			writeError(w, a.logger, booking.NewValidationError("date_time", "must be an RFC 3339 timestamp"))
			return
		}
		dt = t
	}

	appt, err := a.reserving.Book(r.Context(), booking.BookRequest{
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		DateTime:     dt,
		TimeSlotID:   req.TimeSlotID,
	})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointmentToItem(appt))
}

func (a *API) getAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := a.store.GetAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(appt))
}

func (a *API) updateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req appointmentStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	appt, err := a.reserving.UpdateStatus(r.Context(), r.PathValue("id"), model.AppointmentStatus(req.Status))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(appt))
}

func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := a.reserving.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(appt))
}

func (a *API) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := a.reserving.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
