// Package notify implements alert.Gateway channels and the decorators that
// make delivery robust.
//
// Channels:
//   - Webhook posts the alert as JSON.
//   - Mail sends a plain-text message over SMTP.
//   - Kafka publishes the alert as JSON keyed by alert id.
//   - Log writes the alert to an observe.Logger.
//
// Decorators:
//   - Retry retries a failed send with backoff inside one tick.
//   - Breaker stops calling a channel after repeated failures.
//   - Throttle caps the send rate across channels.
//   - Multi fans out to several channels.
//
// Build assembles these from a config.NotifyConfig.
package notify
