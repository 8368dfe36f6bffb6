package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/health"
)

// DefaultResolvedWindow is the /alerts window for recently resolved alerts.
const DefaultResolvedWindow = time.Hour

// AlertSource provides alerts for the HTTP surface.
type AlertSource interface {
	GetOpenAlerts() []alert.Alert
	GetRecentlyResolved(within time.Duration) []alert.Alert
}

// HistorySource provides status history for the HTTP surface.
type HistorySource interface {
	GetHistory(since time.Time) []health.SystemStatus
}

// AlertsResponse is the JSON response for the alerts endpoint.
type AlertsResponse struct {
	Open             []alert.Alert `json:"open"`
	RecentlyResolved []alert.Alert `json:"recently_resolved"`
}

// AlertsHandler serves open alerts and those resolved within ?within=<duration>
// (default one hour).
func AlertsHandler(src AlertSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		within := DefaultResolvedWindow
		if v := r.URL.Query().Get("within"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid within: " + v})
				return
			}
			within = d
		}

		response := AlertsResponse{
			Open:             nonNil(src.GetOpenAlerts()),
			RecentlyResolved: nonNil(src.GetRecentlyResolved(within)),
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// HistoryHandler serves statuses computed within ?since=<duration> (default
// one hour) as a JSON array, oldest first.
func HistoryHandler(src HistorySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window := time.Hour
		if v := r.URL.Query().Get("since"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since: " + v})
				return
			}
			window = d
		}

		history := src.GetHistory(time.Now().Add(-window))
		out := make([]health.StatusResponse, 0, len(history))
		for _, status := range history {
			out = append(out, health.NewStatusResponse(status))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// RegisterHandlers registers the health endpoints plus /alerts and /history.
func RegisterHandlers(mux *http.ServeMux, m *Monitor) {
	health.RegisterHandlers(mux, m)
	mux.HandleFunc("/alerts", AlertsHandler(m))
	mux.HandleFunc("/history", HistoryHandler(m))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(alerts []alert.Alert) []alert.Alert {
	if alerts == nil {
		return []alert.Alert{}
	}
	return alerts
}
