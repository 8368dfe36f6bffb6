package observe

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the engine.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: a span in ctx adds trace_id and span_id to the entry.
// - Errors: logging is best-effort and never panics.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a child logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field is one key/value pair of a log entry. Error values are logged by
// their message.
type Field struct {
	Key   string
	Value any
}

const redacted = "[REDACTED]"

// Keys whose values never reach the log. A key also matches when it ends
// in _<name>, as in db_password or smtp_token.
var secretKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"credentials",
	"dsn",
	"authorization",
	"secret_key",
}

// NewLogger returns a JSON logger on stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger writing to w. Unknown levels
// fall back to info.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), levelOf(level))
	return &zapLogger{z: zap.New(core)}
}

func levelOf(name string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil || name == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) log(ctx context.Context, lvl zapcore.Level, msg string, fields []Field) {
	if ce := l.z.Check(lvl, msg); ce != nil {
		ce.Write(toZap(ctx, fields)...)
	}
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZap(context.Background(), fields)...)}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

// Sync flushes l when it buffers entries. EINVAL and ENOTTY, returned when
// syncing a terminal or pipe, are not errors.
func Sync(l Logger) error {
	s, ok := l.(interface{ Sync() error })
	if !ok {
		return nil
	}
	if err := s.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		return err
	}
	return nil
}

func toZap(ctx context.Context, fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out = append(out,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}

	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			out = append(out, zap.String(f.Key, v.Error()))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
		if isSecret(f.Key) {
			out[len(out)-1] = zap.String(f.Key, redacted)
		}
	}
	return out
}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	for _, name := range secretKeys {
		if key == name || strings.HasSuffix(key, "_"+name) {
			return true
		}
	}
	return false
}

type nopLogger struct{}

// NopLogger returns a Logger that discards every entry.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (l nopLogger) With(...Field) Logger                  { return l }
