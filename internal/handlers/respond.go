package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/termiplan/termiplan/internal/booking"
)

type errorResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Errors map[string]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the booking error taxonomy onto HTTP statuses.
// Everything in the taxonomy is a client error; anything else is a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *booking.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: ve.Fields})
	case errors.Is(err, booking.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrSlotOverlap):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	default:
		logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid json body"})
		return false
	}
	return true
}
