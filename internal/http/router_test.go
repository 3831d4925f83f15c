package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouterMethodGuards(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	router := NewRouter(Routes{
		Battery:         ok,
		DischargeInject: ok,
		IntervalGet:     ok,
		IntervalPut:     ok,
		Health:          ok,
	})

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/battery", http.StatusOK},
		{http.MethodPost, "/api/battery", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/discharge/inject", http.StatusOK},
		{http.MethodGet, "/api/discharge/inject", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/settings/discharge-interval", http.StatusOK},
		{http.MethodPut, "/api/settings/discharge-interval", http.StatusOK},
		{http.MethodDelete, "/api/settings/discharge-interval", http.StatusMethodNotAllowed},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != c.want {
			t.Errorf("%s %s: status = %d, want %d", c.method, c.path, rec.Code, c.want)
		}
	}
}

func TestRouterSkipsUnsetRoutes(t *testing.T) {
	router := NewRouter(Routes{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/battery", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unregistered route: status = %d, want 404", rec.Code)
	}
}
