package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/healthwatch/health"
)

func TestAlertsHandler(t *testing.T) {
	f := newFixture(t, Config{Probes: []health.Probe{staticProbe("database", health.StatusCritical)}}, nil)
	if err := f.monitor.TickNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	AlertsHandler(f.monitor).ServeHTTP(rec, httptest.NewRequest("GET", "/alerts?within=30m", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp AlertsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Open) != 1 || resp.Open[0].Component != "database" {
		t.Errorf("open = %+v", resp.Open)
	}
	if resp.RecentlyResolved == nil {
		t.Error("recently_resolved should be an empty array, not null")
	}
}

func TestAlertsHandler_BadWindow(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	rec := httptest.NewRecorder()
	AlertsHandler(f.monitor).ServeHTTP(rec, httptest.NewRequest("GET", "/alerts?within=soon", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

// historyFunc adapts a function to HistorySource.
type historyFunc func(since time.Time) []health.SystemStatus

func (f historyFunc) GetHistory(since time.Time) []health.SystemStatus { return f(since) }

func TestHistoryHandler(t *testing.T) {
	var gotSince time.Time
	src := historyFunc(func(since time.Time) []health.SystemStatus {
		gotSince = since
		return []health.SystemStatus{
			health.Aggregate([]health.CheckResult{{Component: "db", Status: health.StatusHealthy}}, time.Now()),
		}
	})

	rec := httptest.NewRecorder()
	HistoryHandler(src).ServeHTTP(rec, httptest.NewRequest("GET", "/history?since=10m", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if d := time.Since(gotSince); d < 10*time.Minute || d > 11*time.Minute {
		t.Errorf("since window = %v, want ~10m", d)
	}
	var out []health.StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Status != "healthy" {
		t.Errorf("history = %+v", out)
	}
}

func TestRegisterHandlers(t *testing.T) {
	f := newFixture(t, Config{Probes: []health.Probe{staticProbe("cache", health.StatusHealthy)}}, nil)
	mux := http.NewServeMux()
	RegisterHandlers(mux, f.monitor)

	// Before the first tick readiness is not yet available.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz before tick = %d, want 503", rec.Code)
	}

	_ = f.monitor.TickNow(context.Background())

	for path, want := range map[string]int{
		"/healthz":      http.StatusOK,
		"/readyz":       http.StatusOK,
		"/status":       http.StatusOK,
		"/status/cache": http.StatusOK,
		"/alerts":       http.StatusOK,
		"/history":      http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != want {
			t.Errorf("%s = %d, want %d", path, rec.Code, want)
		}
	}
}
