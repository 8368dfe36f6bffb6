package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// concurrencyProbe records the peak number of concurrently running ticks.
type concurrencyProbe struct {
	running atomic.Int32
	peak    atomic.Int32
	total   atomic.Int32
	hold    time.Duration
}

func (c *concurrencyProbe) tick(ctx context.Context) error {
	n := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	c.total.Add(1)
	time.Sleep(c.hold)
	return nil
}

func TestNewScheduler_Validation(t *testing.T) {
	noop := func(context.Context) error { return nil }

	if _, err := NewScheduler(SchedulerConfig{}, nil, nil, nil); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("nil tick error = %v", err)
	}
	if _, err := NewScheduler(SchedulerConfig{Interval: -time.Second}, noop, nil, nil); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("negative interval error = %v", err)
	}
	if _, err := NewScheduler(SchedulerConfig{Schedule: "61 * * * *"}, noop, nil, nil); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("bad cron error = %v", err)
	}

	for _, spec := range []string{"*/5 * * * *", "*/10 * * * * *", "@every 30s"} {
		if _, err := NewScheduler(SchedulerConfig{Schedule: spec}, noop, nil, nil); err != nil {
			t.Errorf("NewScheduler(%q) error = %v", spec, err)
		}
	}

	s, _ := NewScheduler(SchedulerConfig{}, noop, nil, nil)
	if s.config.Interval != 30*time.Second {
		t.Errorf("default interval = %v, want 30s", s.config.Interval)
	}
}

func TestScheduler_TickNowRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s, err := NewScheduler(SchedulerConfig{}, func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.TickNow(context.Background()) }()
	<-entered

	if s.State() != StateRunning {
		t.Errorf("State() = %v, want running", s.State())
	}
	if err := s.TickNow(context.Background()); !errors.Is(err, ErrTickInProgress) {
		t.Errorf("overlapping TickNow() error = %v, want ErrTickInProgress", err)
	}
	if s.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", s.Skipped())
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first TickNow() error = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want idle", s.State())
	}
}

func TestScheduler_NoConcurrentTicks(t *testing.T) {
	probe := &concurrencyProbe{hold: 30 * time.Millisecond}
	s, err := NewScheduler(SchedulerConfig{Interval: 5 * time.Millisecond}, probe.tick, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	if probe.peak.Load() != 1 {
		t.Errorf("peak concurrent ticks = %d, want 1", probe.peak.Load())
	}
	if probe.total.Load() == 0 {
		t.Error("no tick ran")
	}
	if s.Skipped() == 0 {
		t.Error("overrunning ticks were not skipped")
	}
}

func TestScheduler_ConcurrentTickNow(t *testing.T) {
	probe := &concurrencyProbe{hold: 20 * time.Millisecond}
	s, _ := NewScheduler(SchedulerConfig{}, probe.tick, nil, nil)

	var wg sync.WaitGroup
	var rejected atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(s.TickNow(context.Background()), ErrTickInProgress) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if probe.peak.Load() != 1 {
		t.Errorf("peak concurrent ticks = %d, want 1", probe.peak.Load())
	}
	if int(probe.total.Load())+int(rejected.Load()) != 8 {
		t.Errorf("ran %d + rejected %d, want 8", probe.total.Load(), rejected.Load())
	}
}

func TestScheduler_StartStop(t *testing.T) {
	var ticks atomic.Int32
	s, _ := NewScheduler(SchedulerConfig{Interval: time.Hour, RunImmediately: true}, func(context.Context) error {
		ticks.Add(1)
		return nil
	}, nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v", err)
	}

	s.Stop()
	s.Stop()

	if ticks.Load() != 1 {
		t.Errorf("ticks = %d, want 1 immediate tick", ticks.Load())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop error = %v", err)
	}
}

func TestScheduler_CronSchedule(t *testing.T) {
	var ticks atomic.Int32
	s, err := NewScheduler(SchedulerConfig{Schedule: "@every 1s"}, func(context.Context) error {
		ticks.Add(1)
		return nil
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	if ticks.Load() < 1 {
		t.Errorf("cron ticks = %d, want at least 1", ticks.Load())
	}
}

func TestScheduler_RecoversPanic(t *testing.T) {
	s, _ := NewScheduler(SchedulerConfig{}, func(context.Context) error {
		panic("boom")
	}, nil, nil)

	if err := s.TickNow(context.Background()); err == nil {
		t.Fatal("TickNow() error = nil, want panic error")
	}
	if s.State() != StateIdle {
		t.Error("state stuck after panic")
	}
	if err := s.TickNow(context.Background()); err == nil {
		t.Error("second tick did not run")
	}
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	var ticks atomic.Int32
	s, _ := NewScheduler(SchedulerConfig{Interval: 5 * time.Millisecond}, func(context.Context) error {
		ticks.Add(1)
		return nil
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_ = s.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)

	if ticks.Load() != after {
		t.Error("ticks continued after context cancellation")
	}
	s.Stop()
}

func TestState_String(t *testing.T) {
	if StateIdle.String() != "idle" || StateRunning.String() != "running" || State(5).String() != "unknown" {
		t.Error("State.String mismatch")
	}
}
