package handlers

import (
	"net/http"
	"strings"

	"github.com/termiplan/termiplan/internal/booking"
)

type specializationRequest struct {
	Name string `json:"name"`
}

func (req *specializationRequest) validate() error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return booking.NewValidationError("name", "required")
	}
	if len(name) > 255 {
		return booking.NewValidationError("name", "must not exceed 255 characters")
	}
	req.Name = name
	return nil
}

func (a *API) listSpecializations(w http.ResponseWriter, r *http.Request) {
	specs, err := a.store.ListSpecializations(r.Context())
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	items := make([]specializationItem, 0, len(specs))
	for _, sp := range specs {
		items = append(items, specializationToItem(sp))
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createSpecialization(w http.ResponseWriter, r *http.Request) {
	var req specializationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, a.logger, err)
		return
	}
	sp, err := a.store.CreateSpecialization(r.Context(), req.Name)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, specializationToItem(sp))
}

func (a *API) getSpecialization(w http.ResponseWriter, r *http.Request) {
	sp, err := a.store.GetSpecialization(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, specializationToItem(sp))
}

func (a *API) updateSpecialization(w http.ResponseWriter, r *http.Request) {
	var req specializationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, a.logger, err)
		return
	}
	sp, err := a.store.UpdateSpecialization(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, specializationToItem(sp))
}

func (a *API) deleteSpecialization(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteSpecialization(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
