package handlers

import (
	"net/http"

	"bluettimon/internal/notify"
)

// NewNotifyTestHandler returns POST /api/notifications/test.
func NewNotifyTestHandler(notifier *notify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !notifier.Enabled() {
			writeError(w, http.StatusBadRequest, "no notification channels configured")
			return
		}
		if err := notifier.SendTest(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "test notification failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}

// NewHealthHandler returns GET /health.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
