package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
)

type doctorRequest struct {
	Name             string `json:"name"`
	SpecializationID string `json:"specialization_id"`
}

func (req *doctorRequest) validate() error {
	fields := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fields["name"] = "required"
	} else if len(req.Name) > 255 {
		fields["name"] = "must not exceed 255 characters"
	}
	if strings.TrimSpace(req.SpecializationID) == "" {
		fields["specialization_id"] = "required"
	}
	if len(fields) > 0 {
		return &booking.ValidationError{Fields: fields}
	}
	return nil
}

func (a *API) listDoctors(w http.ResponseWriter, r *http.Request) {
	var err error
	var docs []model.Doctor
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		docs, err = a.store.SearchDoctors(r.Context(), q)
	} else {
		docs, err = a.store.ListDoctors(r.Context())
	}
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]doctorItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doctorToItem(doc))
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, a.logger, err)
		return
	}
	doc, err := a.store.CreateDoctor(r.Context(), req.Name, req.SpecializationID)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, doctorToItem(doc))
}

func (a *API) getDoctor(w http.ResponseWriter, r *http.Request) {
	doc, err := a.store.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorToItem(doc))
}

func (a *API) updateDoctor(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, a.logger, err)
		return
	}
	doc, err := a.store.UpdateDoctor(r.Context(), r.PathValue("id"), req.Name, req.SpecializationID)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorToItem(doc))
}

func (a *API) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteDoctor(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listDoctorSlots returns the doctor's open slots starting after now, or
// after the ?from= instant when the caller supplies one.
func (a *API) listDoctorSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if _, err := a.store.GetDoctor(r.Context(), doctorID); err != nil {
		writeError(w, a.logger, err)
		return
	}

	after := time.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, a.logger, booking.NewValidationError("from", "must be an RFC 3339 timestamp"))
			return
		}
		after = t
	}

	slots, err := a.store.ListAvailableSlots(r.Context(), doctorID, after)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]slotItem, 0, len(slots))
	for _, slot := range slots {
		items = append(items, slotToItem(slot))
	}
	writeJSON(w, http.StatusOK, items)
}
