package alert

import "context"

// Gateway delivers finalized alerts. Delivery mechanics are up to the
// implementation.
//
// Contract:
// - Concurrency: Send may be called from the tick goroutine only; it need not
//   be safe for concurrent use unless shared.
// - Context: Send should honor cancellation/deadlines.
// - Errors: a non-nil error marks the delivery as failed; the engine retries
//   on a later tick. Send receives a copy and may retain it.
// - A resolved alert (ResolvedAt set) is a resolution notice.
type Gateway interface {
	Send(ctx context.Context, a Alert) error
}

// GatewayFunc adapts a function to a Gateway.
type GatewayFunc func(ctx context.Context, a Alert) error

// Send calls f.
func (f GatewayFunc) Send(ctx context.Context, a Alert) error {
	return f(ctx, a)
}

// Repository stores alerts. It is the only owner of alert state.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - OpenAlerts returns copies of every alert with no ResolvedAt.
// - UpdateAlert applies fn atomically to the stored alert and returns a copy
//   of the result. If fn returns an error nothing is changed.
type Repository interface {
	OpenAlerts(ctx context.Context) ([]Alert, error)
	CreateAlert(ctx context.Context, a Alert) error
	UpdateAlert(ctx context.Context, id string, fn func(*Alert) error) (Alert, error)
}
