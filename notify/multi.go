package notify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/observe"
)

// Channel is a named gateway.
type Channel struct {
	Name    string
	Gateway alert.Gateway
}

// Multi sends every alert to all channels concurrently. Send fails only
// when no channel delivered; partial failures are logged.
type Multi struct {
	channels []Channel
	logger   observe.Logger
}

// NewMulti creates a fan-out over channels.
func NewMulti(logger observe.Logger, channels ...Channel) *Multi {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Multi{channels: channels, logger: logger}
}

// Send delivers a to every channel.
func (m *Multi) Send(ctx context.Context, a alert.Alert) error {
	if len(m.channels) == 0 {
		return nil
	}

	errs := make([]error, len(m.channels))
	var g errgroup.Group
	for i, ch := range m.channels {
		g.Go(func() error {
			errs[i] = ch.Gateway.Send(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, fmt.Errorf("%s: %w", m.channels[i].Name, err))
		m.logger.Warn(ctx, "notification channel failed",
			observe.Field{Key: "channel", Value: m.channels[i].Name},
			observe.Field{Key: "alert_id", Value: a.ID},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}

	if len(failed) == len(m.channels) {
		return errors.Join(append([]error{ErrAllChannelsFailed}, failed...)...)
	}
	return nil
}
