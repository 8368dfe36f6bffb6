package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusWarning, "warning"},
		{StatusCritical, "critical"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_Worse(t *testing.T) {
	if got := StatusHealthy.Worse(StatusWarning); got != StatusWarning {
		t.Errorf("Healthy.Worse(Warning) = %v", got)
	}
	if got := StatusCritical.Worse(StatusWarning); got != StatusCritical {
		t.Errorf("Critical.Worse(Warning) = %v", got)
	}
}

func TestStatus_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]Status{"s": StatusWarning})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"s":"warning"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out map[string]Status
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out["s"] != StatusWarning {
		t.Errorf("Unmarshal() = %v, want warning", out["s"])
	}
}

func TestHealthy(t *testing.T) {
	result := Healthy("test message")

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Message != "test message" {
		t.Errorf("Message = %v, want 'test message'", result.Message)
	}
	if result.MeasuredAt.IsZero() {
		t.Error("MeasuredAt should not be zero")
	}
}

func TestCritical(t *testing.T) {
	testErr := errors.New("test error")
	result := Critical("down", testErr)

	if result.Status != StatusCritical {
		t.Errorf("Status = %v, want StatusCritical", result.Status)
	}
	if result.Err != testErr {
		t.Errorf("Err = %v, want %v", result.Err, testErr)
	}
}

func TestCheckResult_WithMetricDoesNotAlias(t *testing.T) {
	base := Healthy("ok").WithMetric("a", 1)
	first := base.WithMetric("b", 2)
	second := base.WithMetric("c", 3)

	if len(base.Metrics) != 1 {
		t.Fatalf("base metrics = %d, want 1", len(base.Metrics))
	}
	if first.Metrics[1].Name != "b" || second.Metrics[1].Name != "c" {
		t.Errorf("derived results share backing array: %v / %v", first.Metrics, second.Metrics)
	}
}

func TestProbeFunc(t *testing.T) {
	probe := NewProbeFunc("cache", func(ctx context.Context) CheckResult {
		return Healthy("from func")
	})

	if probe.Name() != "cache" {
		t.Errorf("Name() = %v, want 'cache'", probe.Name())
	}
	if got := probe.Check(context.Background()); got.Message != "from func" {
		t.Errorf("Check() Message = %v, want 'from func'", got.Message)
	}
}

func TestPingFunc(t *testing.T) {
	up := PingFunc("queue", func(ctx context.Context) error { return nil })
	if got := up.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got.Status)
	}

	down := PingFunc("queue", func(ctx context.Context) error { return errors.New("refused") })
	got := down.Check(context.Background())
	if got.Status != StatusCritical || got.Err == nil {
		t.Errorf("Check() = %+v, want critical with error", got)
	}
}
