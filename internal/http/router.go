package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Telemetry        http.HandlerFunc
	Battery          http.HandlerFunc
	Power            http.HandlerFunc
	HistorySnapshots http.HandlerFunc
	Sessions         http.HandlerFunc
	Discharge        http.HandlerFunc
	DischargeInject  http.HandlerFunc
	IntervalGet      http.HandlerFunc
	IntervalPut      http.HandlerFunc
	NotifyTest       http.HandlerFunc
	Live             http.HandlerFunc
	Health           http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Telemetry != nil {
		mux.Handle("/api/telemetry", method(http.MethodGet, routes.Telemetry))
	}
	if routes.Battery != nil {
		mux.Handle("/api/battery", method(http.MethodGet, routes.Battery))
	}
	if routes.Power != nil {
		mux.Handle("/api/power", method(http.MethodGet, routes.Power))
	}
	if routes.HistorySnapshots != nil {
		mux.Handle("/api/history/snapshots", method(http.MethodGet, routes.HistorySnapshots))
	}
	if routes.Sessions != nil {
		mux.Handle("/api/sessions", method(http.MethodGet, routes.Sessions))
	}
	if routes.Discharge != nil {
		mux.Handle("/api/discharge", method(http.MethodGet, routes.Discharge))
	}
	if routes.DischargeInject != nil {
		mux.Handle("/api/discharge/inject", method(http.MethodPost, routes.DischargeInject))
	}
	if routes.IntervalGet != nil && routes.IntervalPut != nil {
		mux.Handle("/api/settings/discharge-interval", byMethod(map[string]http.HandlerFunc{
			http.MethodGet: routes.IntervalGet,
			http.MethodPut: routes.IntervalPut,
		}))
	}
	if routes.NotifyTest != nil {
		mux.Handle("/api/notifications/test", method(http.MethodPost, routes.NotifyTest))
	}
	if routes.Live != nil {
		mux.Handle("/ws", routes.Live)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return byMethod(map[string]http.HandlerFunc{expected: handler})
}

func byMethod(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
