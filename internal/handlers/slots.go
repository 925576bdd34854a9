package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/termiplan/termiplan/internal/booking"
	"github.com/termiplan/termiplan/internal/model"
	"github.com/termiplan/termiplan/internal/slots"
)

type slotRequest struct {
	DoctorID    string `json:"doctor_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available"`
}

func (req *slotRequest) validate() (start, end time.Time, err error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.DoctorID) == "" {
		fields["doctor_id"] = "required"
	}
	start, startErr := time.Parse(time.RFC3339, req.StartTime)
	if req.StartTime == "" {
		fields["start_time"] = "required"
	} else if startErr != nil {
		fields["start_time"] = "must be an RFC 3339 timestamp"
	}
	end, endErr := time.Parse(time.RFC3339, req.EndTime)
	if req.EndTime == "" {
		fields["end_time"] = "required"
	} else if endErr != nil {
		fields["end_time"] = "must be an RFC 3339 timestamp"
	} else if startErr == nil && !end.After(start) {
		fields["end_time"] = "must be after start_time"
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, &booking.ValidationError{Fields: fields}
	}
	return start, end, nil
}

type generateSlotsRequest struct {
	DoctorID     string `json:"doctor_id"`
	Date         string `json:"date"`
	StartHour    int    `json:"start_hour"`
	EndHour      int    `json:"end_hour"`
	SlotDuration int    `json:"slot_duration"`
}

func (a *API) listSlots(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListSlots(r.Context())
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]slotItem, 0, len(list))
	for _, slot := range list {
		items = append(items, slotToItem(slot))
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, end, err := req.validate()
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	if !start.After(time.Now()) {
		writeError(w, a.logger, booking.NewValidationError("start_time", "must be in the future"))
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	slot, err := a.store.CreateSlot(r.Context(), model.TimeSlot{
		DoctorID:  req.DoctorID,
		StartTime: start,
		EndTime:   end,
		Available: available,
	})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, slotToItem(slot))
}

func (a *API) generateSlots(w http.ResponseWriter, r *http.Request) {
	var req generateSlotsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, a.logger, booking.NewValidationError("date", "must be a date in YYYY-MM-DD form"))
			return
		}
		date = d
	}
	created, err := a.generator.Generate(r.Context(), slots.Params{
		DoctorID:        req.DoctorID,
		Date:            date,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
		DurationMinutes: req.SlotDuration,
	})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]slotItem, 0, len(created))
	for _, slot := range created {
		items = append(items, slotToItem(slot))
	}
	writeJSON(w, http.StatusCreated, items)
}

func (a *API) getSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := a.store.GetSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slotToItem(slot))
}

func (a *API) updateSlot(w http.ResponseWriter, r *http.Request) {
	current, err := a.store.GetSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	var req slotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Partial update: absent fields keep their stored values.
	if req.DoctorID == "" {
		req.DoctorID = current.DoctorID
	}
	if req.StartTime == "" {
		req.StartTime = current.StartTime.Format(time.RFC3339)
	}
	if req.EndTime == "" {
		req.EndTime = current.EndTime.Format(time.RFC3339)
	}
	start, end, err := req.validate()
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	available := current.Available
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	slot, err := a.store.UpdateSlot(r.Context(), model.TimeSlot{
		ID:        current.ID,
		DoctorID:  req.DoctorID,
		StartTime: start,
		EndTime:   end,
		Available: available,
		CreatedAt: current.CreatedAt,
	})
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slotToItem(slot))
}

func (a *API) deleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteSlot(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) slotAvailability(w http.ResponseWriter, r *http.Request) {
	slot, err := a.store.GetSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_available": slot.Available})
}
