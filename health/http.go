package health

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// StatusSource provides the most recent SystemStatus. Implementations must
// never block on probe execution and must be safe for concurrent use.
type StatusSource interface {
	GetLatestStatus() SystemStatus
}

// StatusSourceFunc adapts a function to a StatusSource.
type StatusSourceFunc func() SystemStatus

// GetLatestStatus calls f.
func (f StatusSourceFunc) GetLatestStatus() SystemStatus {
	return f()
}

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
// It reports the last completed tick; it never runs probes itself.
func ReadinessHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := src.GetLatestStatus()

		w.Header().Set("Content-Type", "text/plain")

		switch {
		case !status.Initialized():
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("INITIALIZING"))
		case status.Overall == StatusHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case status.Overall == StatusWarning:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("WARNING"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("CRITICAL"))
		}
	}
}

// StatusResponse is the JSON response for the status endpoint.
type StatusResponse struct {
	Status      string                       `json:"status"`
	Initialized bool                         `json:"initialized"`
	Note        string                       `json:"note,omitempty"`
	ComputedAt  string                       `json:"computed_at,omitempty"`
	Components  map[string]ComponentResponse `json:"components,omitempty"`
}

// ComponentResponse is the JSON response for a single component.
type ComponentResponse struct {
	Status     string             `json:"status"`
	Message    string             `json:"message,omitempty"`
	LatencyMs  float64            `json:"latency_ms"`
	MeasuredAt string             `json:"measured_at"`
	Details    map[string]any     `json:"details,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NewStatusResponse converts a SystemStatus to its JSON form.
func NewStatusResponse(status SystemStatus) StatusResponse {
	response := StatusResponse{
		Status:      status.Overall.String(),
		Initialized: status.Initialized(),
		Note:        status.Note,
		Components:  make(map[string]ComponentResponse, len(status.Components)),
	}
	if status.Initialized() {
		response.ComputedAt = status.ComputedAt.UTC().Format(time.RFC3339)
	}

	for name, result := range status.Components {
		response.Components[name] = newComponentResponse(result)
	}

	return response
}

func newComponentResponse(result CheckResult) ComponentResponse {
	component := ComponentResponse{
		Status:     result.Status.String(),
		Message:    result.Message,
		LatencyMs:  result.LatencyMs(),
		MeasuredAt: result.MeasuredAt.UTC().Format(time.RFC3339),
		Details:    result.Details,
	}
	if len(result.Metrics) > 0 {
		component.Metrics = make(map[string]float64, len(result.Metrics))
		for _, sample := range result.Metrics {
			component.Metrics[sample.Name] = sample.Value
		}
	}
	if result.Err != nil {
		component.Error = result.Err.Error()
	}
	return component
}

// StatusHandler returns an HTTP handler that serves the latest SystemStatus
// as JSON. A Critical or uninitialized status answers 503.
func StatusHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := src.GetLatestStatus()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpCode(status))
		_ = json.NewEncoder(w).Encode(NewStatusResponse(status))
	}
}

// ComponentHandler returns an HTTP handler for a single component, taken
// from the path suffix after prefix (e.g. /status/database).
func ComponentHandler(src StatusSource, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
		status := src.GetLatestStatus()

		w.Header().Set("Content-Type", "application/json")

		result, ok := status.Components[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "component not found: " + name,
			})
			return
		}

		if result.Status == StatusCritical {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(newComponentResponse(result))
	}
}

func httpCode(status SystemStatus) int {
	if !status.Initialized() || status.Overall == StatusCritical {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// RegisterHandlers registers the health endpoints on the given mux.
func RegisterHandlers(mux *http.ServeMux, src StatusSource) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(src))
	mux.HandleFunc("/status", StatusHandler(src))
	mux.HandleFunc("/status/", ComponentHandler(src, "/status/"))
}
