package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HEALTHWATCH"

// envOverrides are the settings that may be overridden from the
// environment as HEALTHWATCH_<FIELD_NAME>. Unset variables leave the
// pointer nil.
type envOverrides struct {
	TickInterval        *time.Duration `split_words:"true"`
	Schedule            *string        `split_words:"true"`
	ProbeTimeout        *time.Duration `split_words:"true"`
	WorkerPoolSize      *int           `split_words:"true"`
	Retention           *time.Duration `split_words:"true"`
	EscalationThreshold *int           `split_words:"true"`
	CooldownCritical    *time.Duration `split_words:"true"`
	CooldownWarning     *time.Duration `split_words:"true"`
	CooldownInfo        *time.Duration `split_words:"true"`
	ServerAddr          *string        `split_words:"true"`
	LogLevel            *string        `split_words:"true"`
	MetricsExporter     *string        `split_words:"true"`
	MetricsInterval     *time.Duration `split_words:"true"`
	TracingExporter     *string        `split_words:"true"`
}

// Load reads configuration from path. An empty path skips the file and
// uses defaults plus environment overrides. Variables from envFiles (or
// ./.env when none are given) are loaded first without overriding the
// process environment; missing env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	if path == "" {
		return Parse(nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses configuration from r.
func Read(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse expands, decodes, applies environment overrides to and validates
// YAML data layered over Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if len(bytes.TrimSpace(data)) > 0 {
		expanded, err := ExpandEnvStrict(string(data))
		if err != nil {
			return Config{}, err
		}

		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	set(&cfg.Monitor.TickInterval, env.TickInterval)
	set(&cfg.Monitor.Schedule, env.Schedule)
	set(&cfg.Monitor.ProbeTimeout, env.ProbeTimeout)
	set(&cfg.Monitor.WorkerPoolSize, env.WorkerPoolSize)
	set(&cfg.Store.Retention, env.Retention)
	set(&cfg.Alerts.EscalationThreshold, env.EscalationThreshold)
	set(&cfg.Alerts.Cooldowns.Critical, env.CooldownCritical)
	set(&cfg.Alerts.Cooldowns.Warning, env.CooldownWarning)
	set(&cfg.Alerts.Cooldowns.Info, env.CooldownInfo)
	set(&cfg.Server.Addr, env.ServerAddr)
	set(&cfg.Observe.Logging.Level, env.LogLevel)
	set(&cfg.Observe.Metrics.Exporter, env.MetricsExporter)
	set(&cfg.Observe.Metrics.ExportInterval, env.MetricsInterval)
	set(&cfg.Observe.Tracing.Exporter, env.TracingExporter)
	if env.TracingExporter != nil {
		cfg.Observe.Tracing.Enabled = *env.TracingExporter != "none"
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
