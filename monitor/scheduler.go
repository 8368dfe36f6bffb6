package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonwraymond/healthwatch/observe"
)

// State is the scheduler tick state.
type State int32

const (
	// StateIdle means no tick is running.
	StateIdle State = iota
	// StateRunning means a tick is executing.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// TickFunc runs one tick.
type TickFunc func(ctx context.Context) error

// SchedulerConfig configures when ticks fire.
type SchedulerConfig struct {
	// Interval is the fixed tick period. Default: 30 seconds
	Interval time.Duration

	// Schedule is an optional cron expression (5 or 6 fields, or a
	// descriptor such as "@every 1m"). When set it replaces Interval.
	Schedule string

	// RunImmediately fires one tick as soon as Start is called.
	RunImmediately bool
}

// Scheduler fires ticks periodically and guarantees that at most one tick
// runs at a time. A trigger that arrives while a tick is running is skipped,
// not queued.
type Scheduler struct {
	config  SchedulerConfig
	tick    TickFunc
	logger  observe.Logger
	metrics observe.Metrics

	state   atomic.Int32
	skipped atomic.Int64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	cron    *cron.Cron
	wg      sync.WaitGroup
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewScheduler creates a scheduler. The cron expression, if any, is
// validated here.
func NewScheduler(config SchedulerConfig, tick TickFunc, logger observe.Logger, metrics observe.Metrics) (*Scheduler, error) {
	if tick == nil {
		return nil, fmt.Errorf("%w: tick function is nil", ErrInvalidSchedule)
	}
	if config.Interval < 0 {
		return nil, fmt.Errorf("%w: negative interval %s", ErrInvalidSchedule, config.Interval)
	}
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.Schedule != "" {
		if _, err := cronParser.Parse(config.Schedule); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, config.Schedule, err)
		}
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	if metrics == nil {
		metrics = observe.NopMetrics()
	}

	return &Scheduler{
		config:  config,
		tick:    tick,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// State returns the current tick state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Skipped returns the number of triggers skipped because a tick was running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Start begins firing ticks until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	if s.config.RunImmediately {
		s.spawn(ctx)
	}

	if s.config.Schedule != "" {
		s.cron = cron.New(cron.WithParser(cronParser))
		// Validated in NewScheduler.
		_, _ = s.cron.AddFunc(s.config.Schedule, func() { s.fire(ctx) })
		s.cron.Start()
		s.logger.Info(ctx, "scheduler started", observe.Field{Key: "schedule", Value: s.config.Schedule})
		return nil
	}

	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info(ctx, "scheduler started", observe.Field{Key: "interval", Value: s.config.Interval.String()})
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawn(ctx)
		}
	}
}

// spawn fires a tick on its own goroutine so an overrunning tick is
// observed as a skip rather than silently coalesced by the ticker.
func (s *Scheduler) spawn(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fire(ctx)
	}()
}

// Stop stops firing ticks and waits for a running tick to finish.
// Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, c := s.cancel, s.cron
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		<-c.Stop().Done()
	}
	s.wg.Wait()
}

// TickNow runs one tick synchronously. It returns ErrTickInProgress if a
// tick is already running.
func (s *Scheduler) TickNow(ctx context.Context) error {
	return s.run(ctx)
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_ = s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) (err error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		s.skipped.Add(1)
		s.metrics.RecordTickSkipped(ctx)
		s.logger.Warn(ctx, "tick skipped: previous tick still running")
		return ErrTickInProgress
	}
	defer s.state.Store(int32(StateIdle))

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("monitor: tick panicked: %v", v)
			s.logger.Error(ctx, "tick panicked", observe.Field{Key: "panic", Value: fmt.Sprint(v)})
		}
	}()

	if err = s.tick(ctx); err != nil {
		s.logger.Error(ctx, "tick failed", observe.Field{Key: "error", Value: err.Error()})
	}
	return err
}
