package notify

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jonwraymond/healthwatch/alert"
)

// Throttle caps the rate of sends through a token bucket. A send over the
// limit fails immediately with ErrThrottled; the engine retries it on a
// later tick.
type Throttle struct {
	next    alert.Gateway
	limiter *rate.Limiter
}

// NewThrottle wraps next with a limit of perSecond sends and the given
// burst. A burst below one is raised to one.
func NewThrottle(next alert.Gateway, perSecond float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send delivers a if a token is available.
func (t *Throttle) Send(ctx context.Context, a alert.Alert) error {
	if !t.limiter.Allow() {
		return ErrThrottled
	}
	return t.next.Send(ctx, a)
}
