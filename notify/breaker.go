package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	// BreakerClosed passes sends through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects sends with ErrCircuitOpen.
	BreakerOpen
	// BreakerHalfOpen lets one trial send through.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a trial send.
	// Default: 1 minute
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to BreakerState)
}

// Breaker stops calling a failing channel until ResetTimeout has passed.
// Rejected sends fail with ErrCircuitOpen so the engine records them and
// retries on a later tick.
type Breaker struct {
	next   alert.Gateway
	config BreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	trial       bool
}

// NewBreaker wraps next.
func NewBreaker(next alert.Gateway, config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = time.Minute
	}
	return &Breaker{next: next, config: config, now: time.Now}
}

// Send delivers a unless the circuit is open.
func (b *Breaker) Send(ctx context.Context, a alert.Alert) error {
	if err := b.before(); err != nil {
		return err
	}
	err := b.next.Send(ctx, a)
	b.after(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case BreakerOpen:
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if b.trial {
			return ErrCircuitOpen
		}
		b.trial = true
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		if err == nil {
			b.failures = 0
			return
		}
		b.failures++
		b.lastFailure = b.now()
		if b.failures >= b.config.MaxFailures {
			b.setLocked(BreakerOpen)
		}
	case BreakerHalfOpen:
		b.trial = false
		if err != nil {
			b.lastFailure = b.now()
			b.setLocked(BreakerOpen)
			return
		}
		b.failures = 0
		b.setLocked(BreakerClosed)
	}
}

func (b *Breaker) currentLocked() BreakerState {
	if b.state == BreakerOpen && b.now().Sub(b.lastFailure) >= b.config.ResetTimeout {
		b.trial = false
		b.setLocked(BreakerHalfOpen)
	}
	return b.state
}

func (b *Breaker) setLocked(to BreakerState) {
	from := b.state
	b.state = to
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
