package config

import (
	"fmt"
	"time"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/health"
	"github.com/jonwraymond/healthwatch/monitor"
	"github.com/jonwraymond/healthwatch/observe"
	"github.com/jonwraymond/healthwatch/store"
	"github.com/jonwraymond/healthwatch/threshold"
)

// Config is the complete healthwatch configuration.
type Config struct {
	Monitor    MonitorConfig  `yaml:"monitor"`
	Thresholds threshold.Set  `yaml:"thresholds"`
	Alerts     AlertsConfig   `yaml:"alerts"`
	Store      StoreConfig    `yaml:"store"`
	Server     ServerConfig   `yaml:"server"`
	Observe    observe.Config `yaml:"observe"`
	Probes     ProbesConfig   `yaml:"probes"`
	Notify     NotifyConfig   `yaml:"notify"`
}

// MonitorConfig controls tick timing and probe execution.
type MonitorConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	Schedule       string        `yaml:"schedule"`
	RunImmediately bool          `yaml:"run_immediately"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	WorkerPoolSize int           `yaml:"worker_pool_size"`
}

// AlertsConfig controls deduplication, cooldowns and escalation.
type AlertsConfig struct {
	Cooldowns           CooldownConfig `yaml:"cooldowns"`
	EscalationThreshold int            `yaml:"escalation_threshold"`
	RetryInterval       time.Duration  `yaml:"retry_interval"`
	NotifyResolved      bool           `yaml:"notify_resolved"`
}

// CooldownConfig is the minimum time between notifications per severity.
type CooldownConfig struct {
	Critical time.Duration `yaml:"critical"`
	Warning  time.Duration `yaml:"warning"`
	Info     time.Duration `yaml:"info"`
}

// StoreConfig controls retention.
type StoreConfig struct {
	Retention   time.Duration `yaml:"retention"`
	MaxStatuses int           `yaml:"max_statuses"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MetricsPath     string        `yaml:"metrics_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProbesConfig lists the dependency probes to run each tick.
type ProbesConfig struct {
	Runtime  *RuntimeProbe   `yaml:"runtime"`
	Postgres []PostgresProbe `yaml:"postgres"`
	Redis    []RedisProbe    `yaml:"redis"`
	Kafka    []KafkaProbe    `yaml:"kafka"`
	MinIO    []MinIOProbe    `yaml:"minio"`
	S3       []S3Probe       `yaml:"s3"`
	Disk     []DiskProbe     `yaml:"disk"`
	HTTP     []HTTPProbe     `yaml:"http"`
}

// Count returns the number of configured probes.
func (p ProbesConfig) Count() int {
	n := len(p.Postgres) + len(p.Redis) + len(p.Kafka) + len(p.MinIO) +
		len(p.S3) + len(p.Disk) + len(p.HTTP)
	if p.Runtime != nil {
		n++
	}
	return n
}

// RuntimeProbe configures the Go runtime probe.
type RuntimeProbe struct {
	Component     string `yaml:"component"`
	MaxAllocBytes uint64 `yaml:"max_alloc_bytes"`
	MetricsOnly   bool   `yaml:"metrics_only"`
}

// PostgresProbe configures a pgx pool probe.
type PostgresProbe struct {
	Component string `yaml:"component"`
	DSN       string `yaml:"dsn"`
}

// RedisProbe configures a Redis probe.
type RedisProbe struct {
	Component string `yaml:"component"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
}

// KafkaProbe configures a Kafka broker probe.
type KafkaProbe struct {
	Component string   `yaml:"component"`
	Brokers   []string `yaml:"brokers"`
}

// MinIOProbe configures a MinIO bucket probe.
type MinIOProbe struct {
	Component       string `yaml:"component"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// S3Probe configures an S3 bucket probe.
type S3Probe struct {
	Component string `yaml:"component"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
}

// DiskProbe configures a filesystem usage probe.
type DiskProbe struct {
	Component string `yaml:"component"`
	Path      string `yaml:"path"`
}

// HTTPProbe configures an HTTP endpoint probe.
type HTTPProbe struct {
	Component string `yaml:"component"`
	URL       string `yaml:"url"`
}

// NotifyConfig lists the notification channels.
type NotifyConfig struct {
	Log      bool            `yaml:"log"`
	Webhooks []WebhookNotify `yaml:"webhooks"`
	Mail     *MailNotify     `yaml:"mail"`
	Kafka    *KafkaNotify    `yaml:"kafka"`

	// RateLimit is the maximum sends per second across all channels.
	// Zero disables throttling.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	Retry   RetryConfig   `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// Enabled reports whether any channel is configured.
func (n NotifyConfig) Enabled() bool {
	return n.Log || len(n.Webhooks) > 0 || n.Mail != nil || n.Kafka != nil
}

// WebhookNotify configures a JSON webhook.
type WebhookNotify struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout time.Duration     `yaml:"timeout"`
}

// MailNotify configures SMTP delivery.
type MailNotify struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// KafkaNotify configures alert publication to a Kafka topic.
type KafkaNotify struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RetryConfig controls per-send retries.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig controls the per-channel circuit breaker.
type BreakerConfig struct {
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Monitor: MonitorConfig{
			TickInterval:   30 * time.Second,
			ProbeTimeout:   5 * time.Second,
			WorkerPoolSize: 4,
			RunImmediately: true,
		},
		Thresholds: threshold.Set{
			health.MetricMemoryUsagePercent: {Warning: 80, Critical: 95, Comparison: threshold.GreaterThan},
			"disk_usage_percent":            {Warning: 80, Critical: 95, Comparison: threshold.GreaterThan},
			monitor.MetricLatencyMs:         {Warning: 1000, Critical: 3000, Comparison: threshold.GreaterThan},
		},
		Alerts: AlertsConfig{
			Cooldowns: CooldownConfig{
				Critical: 5 * time.Minute,
				Warning:  15 * time.Minute,
				Info:     time.Hour,
			},
			EscalationThreshold: 5,
		},
		Store: StoreConfig{
			Retention: 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MetricsPath:     "/metrics",
			ShutdownTimeout: 10 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "healthwatch",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Notify: NotifyConfig{
			Log: true,
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
			Breaker: BreakerConfig{
				Threshold:    5,
				ResetTimeout: time.Minute,
			},
		},
	}
}

// Validate checks ranges, orderings and required fields.
func (c *Config) Validate() error {
	m := c.Monitor
	if m.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalidConfig)
	}
	if m.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: probe_timeout must be positive", ErrInvalidConfig)
	}
	if m.Schedule == "" && m.ProbeTimeout >= m.TickInterval {
		return fmt.Errorf("%w: probe_timeout %s must be shorter than tick_interval %s",
			ErrInvalidConfig, m.ProbeTimeout, m.TickInterval)
	}
	if m.WorkerPoolSize < 1 {
		return fmt.Errorf("%w: worker_pool_size must be at least 1", ErrInvalidConfig)
	}
	if c.Store.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if c.Store.MaxStatuses < 0 {
		return fmt.Errorf("%w: max_statuses must not be negative", ErrInvalidConfig)
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if err := c.Observe.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if err := c.Probes.validate(); err != nil {
		return err
	}
	return c.Notify.validate()
}

func (p ProbesConfig) validate() error {
	for i, pg := range p.Postgres {
		if pg.DSN == "" {
			return fmt.Errorf("%w: probes.postgres[%d].dsn is required", ErrInvalidConfig, i)
		}
	}
	for i, r := range p.Redis {
		if r.Addr == "" {
			return fmt.Errorf("%w: probes.redis[%d].addr is required", ErrInvalidConfig, i)
		}
	}
	for i, k := range p.Kafka {
		if len(k.Brokers) == 0 {
			return fmt.Errorf("%w: probes.kafka[%d].brokers is required", ErrInvalidConfig, i)
		}
	}
	for i, mc := range p.MinIO {
		if mc.Endpoint == "" || mc.Bucket == "" {
			return fmt.Errorf("%w: probes.minio[%d] needs endpoint and bucket", ErrInvalidConfig, i)
		}
	}
	for i, s := range p.S3 {
		if s.Bucket == "" {
			return fmt.Errorf("%w: probes.s3[%d].bucket is required", ErrInvalidConfig, i)
		}
	}
	for i, h := range p.HTTP {
		if h.URL == "" {
			return fmt.Errorf("%w: probes.http[%d].url is required", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (n NotifyConfig) validate() error {
	for i, w := range n.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("%w: notify.webhooks[%d].url is required", ErrInvalidConfig, i)
		}
	}
	if n.Mail != nil && (n.Mail.Host == "" || n.Mail.From == "" || len(n.Mail.To) == 0) {
		return fmt.Errorf("%w: notify.mail needs host, from and to", ErrInvalidConfig)
	}
	if n.Kafka != nil && (len(n.Kafka.Brokers) == 0 || n.Kafka.Topic == "") {
		return fmt.Errorf("%w: notify.kafka needs brokers and topic", ErrInvalidConfig)
	}
	if n.RateLimit < 0 || n.Burst < 0 {
		return fmt.Errorf("%w: notify rate_limit and burst must not be negative", ErrInvalidConfig)
	}
	if n.Retry.MaxAttempts < 0 || n.Breaker.Threshold < 0 {
		return fmt.Errorf("%w: notify retry and breaker counts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Policy returns the alert policy.
func (c *Config) Policy() alert.Policy {
	return alert.Policy{
		Cooldowns: map[alert.Severity]time.Duration{
			alert.SeverityCritical: c.Alerts.Cooldowns.Critical,
			alert.SeverityWarning:  c.Alerts.Cooldowns.Warning,
			alert.SeverityInfo:     c.Alerts.Cooldowns.Info,
		},
		EscalationThreshold: c.Alerts.EscalationThreshold,
		RetryInterval:       c.Alerts.RetryInterval,
		NotifyResolved:      c.Alerts.NotifyResolved,
	}
}

// StoreConfig returns the store configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Retention:   c.Store.Retention,
		MaxStatuses: c.Store.MaxStatuses,
	}
}

// MonitorConfig returns the monitor configuration for probes.
func (c *Config) MonitorConfig(probes []health.Probe) monitor.Config {
	return monitor.Config{
		Probes: probes,
		Runner: health.RunnerConfig{
			Timeout:  c.Monitor.ProbeTimeout,
			PoolSize: c.Monitor.WorkerPoolSize,
		},
		Thresholds: c.Thresholds,
		Scheduler: monitor.SchedulerConfig{
			Interval:       c.Monitor.TickInterval,
			Schedule:       c.Monitor.Schedule,
			RunImmediately: c.Monitor.RunImmediately,
		},
	}
}
