package health

import (
	"context"
	"errors"
	"testing"
)

func TestParseStatus_InvalidWrapsSentinel(t *testing.T) {
	s, err := ParseStatus("sideways")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseStatus() error = %v, want ErrInvalidStatus", err)
	}
	if s != StatusCritical {
		t.Errorf("ParseStatus() = %v, want critical", s)
	}
}

func TestUnmarshalText_KeepsValueOnError(t *testing.T) {
	s := StatusWarning
	if err := s.UnmarshalText([]byte("purple")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if s != StatusCritical {
		t.Errorf("status = %v, want critical after invalid input", s)
	}
}

func TestRunner_CancelledWrapsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	r := NewRunner(RunnerConfig{})
	results := r.RunAll(ctx, []Probe{NewProbeFunc("db", func(context.Context) CheckResult {
		<-release
		return Healthy("late")
	})})

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Status != StatusCritical {
		t.Errorf("status = %v, want critical", results[0].Status)
	}
	if !errors.Is(results[0].Err, ErrProbeCancelled) || !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want ErrProbeCancelled wrapping context.Canceled", results[0].Err)
	}
}
