package notify

import (
	"context"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/observe"
)

// Log writes alerts to a logger. It never fails.
type Log struct {
	logger observe.Logger
}

// NewLog creates a log channel.
func NewLog(logger observe.Logger) *Log {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Log{logger: logger}
}

// Send logs a at a level matching its severity.
func (l *Log) Send(ctx context.Context, a alert.Alert) error {
	fields := []observe.Field{
		{Key: "alert_id", Value: a.ID},
		{Key: "alert_type", Value: a.Type},
		{Key: "component", Value: a.Component},
		{Key: "severity", Value: a.Severity.String()},
		{Key: "occurrences", Value: a.OccurrenceCount},
		{Key: "message", Value: a.Message},
	}

	switch {
	case !a.Open():
		l.logger.Info(ctx, "alert resolved", fields...)
	case a.Severity == alert.SeverityCritical:
		l.logger.Error(ctx, "alert firing", fields...)
	case a.Severity == alert.SeverityWarning:
		l.logger.Warn(ctx, "alert firing", fields...)
	default:
		l.logger.Info(ctx, "alert firing", fields...)
	}
	return nil
}
