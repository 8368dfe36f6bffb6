package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/observe"
)

// Build assembles the configured channels into one gateway. Each network
// channel is wrapped in Retry over Breaker; the fan-out is throttled when a
// rate limit is set. It returns a nil gateway when no channel is configured.
func Build(cfg config.NotifyConfig, logger observe.Logger) (alert.Gateway, io.Closer, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}

	var (
		channels []Channel
		closers  closers
	)

	guard := func(name string, g alert.Gateway) Channel {
		breaker := NewBreaker(g, BreakerConfig{
			MaxFailures:  cfg.Breaker.Threshold,
			ResetTimeout: cfg.Breaker.ResetTimeout,
			OnStateChange: func(from, to BreakerState) {
				logger.Warn(context.Background(), "notification circuit changed",
					observe.Field{Key: "channel", Value: name},
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})
		retry := NewRetry(breaker, RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Jitter:       true,
		})
		return Channel{Name: name, Gateway: retry}
	}

	if cfg.Log {
		channels = append(channels, Channel{Name: "log", Gateway: NewLog(logger.With(observe.Field{Key: "channel", Value: "log"}))})
	}

	for i, w := range cfg.Webhooks {
		if w.URL == "" {
			return nil, closers, fmt.Errorf("notify: webhook %d has no url", i)
		}
		channels = append(channels, guard(fmt.Sprintf("webhook[%d]", i), NewWebhook(WebhookConfig{
			URL:     w.URL,
			Headers: w.Headers,
			Timeout: w.Timeout,
		})))
	}

	if m := cfg.Mail; m != nil {
		channels = append(channels, guard("mail", NewMail(MailConfig{
			Host:     m.Host,
			Port:     m.Port,
			Username: m.Username,
			Password: m.Password,
			From:     m.From,
			To:       m.To,
		})))
	}

	if k := cfg.Kafka; k != nil {
		kc := NewKafka(NewKafkaWriter(k.Brokers, k.Topic))
		closers = append(closers, kc)
		channels = append(channels, guard("kafka", kc))
	}

	if len(channels) == 0 {
		return nil, closers, nil
	}

	var gw alert.Gateway = NewMulti(logger, channels...)
	if cfg.RateLimit > 0 {
		gw = NewThrottle(gw, cfg.RateLimit, cfg.Burst)
	}
	return gw, closers, nil
}

type closers []io.Closer

// Close closes every opened writer.
func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}
