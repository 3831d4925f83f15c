package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bluettimon/internal/repository"
)

// IntervalSettings reads and updates the discharge sampling cadence.
type IntervalSettings interface {
	IntervalMinutes(ctx context.Context) (int, error)
	SetIntervalMinutes(ctx context.Context, minutes int) error
}

type intervalPayload struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// NewIntervalGetHandler returns GET /api/settings/discharge-interval.
func NewIntervalGetHandler(settings IntervalSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minutes, err := settings.IntervalMinutes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read interval")
			return
		}
		writeJSON(w, http.StatusOK, intervalPayload{IntervalMinutes: minutes})
	}
}

// NewIntervalPutHandler returns PUT /api/settings/discharge-interval. Values
// outside [1, 1440] are rejected without mutation.
func NewIntervalPutHandler(settings IntervalSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload intervalPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := settings.SetIntervalMinutes(r.Context(), payload.IntervalMinutes); err != nil {
			if errors.Is(err, repository.ErrInvalidInterval) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to update interval")
			return
		}
		writeJSON(w, http.StatusOK, intervalPayload{IntervalMinutes: payload.IntervalMinutes})
	}
}
