package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bluettimon/internal/models"
)

const (
	defaultLookbackHours = 24
	defaultLimit         = 100
	maxLimit             = 1000
)

// SnapshotLister reads snapshot history.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, since time.Time, limit int) ([]models.BatterySnapshot, error)
}

// SessionLister reads closed charge sessions.
type SessionLister interface {
	ListSessions(ctx context.Context, since time.Time, limit int) ([]models.ChargeSession, error)
}

// SampleLister reads discharge samples.
type SampleLister interface {
	ListSamples(ctx context.Context, since time.Time, limit int) ([]models.DischargeSample, error)
}

// lookback parses the hours/limit query params with defaults and caps. The
// lookback never exceeds the retention horizon since older rows are purged
// anyway.
func lookback(r *http.Request, maxHours int) (time.Time, int) {
	hours := defaultLookbackHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	if hours > maxHours {
		hours = maxHours
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return time.Now().Add(-time.Duration(hours) * time.Hour), limit
}

// NewSnapshotHistoryHandler returns GET /api/history/snapshots.
func NewSnapshotHistoryHandler(repo SnapshotLister, retentionHours int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, limit := lookback(r, retentionHours)
		snapshots, err := repo.ListSnapshots(r.Context(), since, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch snapshots")
			return
		}
		if snapshots == nil {
			snapshots = []models.BatterySnapshot{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
	}
}

// NewSessionsHandler returns GET /api/sessions.
func NewSessionsHandler(repo SessionLister, retentionHours int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, limit := lookback(r, retentionHours)
		sessions, err := repo.ListSessions(r.Context(), since, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch charge sessions")
			return
		}
		if sessions == nil {
			sessions = []models.ChargeSession{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
	}
}

// NewDischargeHandler returns GET /api/discharge.
func NewDischargeHandler(repo SampleLister, retentionHours int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, limit := lookback(r, retentionHours)
		samples, err := repo.ListSamples(r.Context(), since, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch discharge samples")
			return
		}
		if samples == nil {
			samples = []models.DischargeSample{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
	}
}
