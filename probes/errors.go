package probes

import "errors"

var (
	// ErrBucketMissing indicates a configured bucket does not exist.
	ErrBucketMissing = errors.New("probes: bucket does not exist")

	// ErrNoBrokers indicates no Kafka broker could be reached.
	ErrNoBrokers = errors.New("probes: no kafka broker reachable")

	// ErrUnexpectedStatus indicates an HTTP endpoint answered with a non-2xx code.
	ErrUnexpectedStatus = errors.New("probes: unexpected http status")

	// ErrUnsupported indicates the probe is not available on this platform.
	ErrUnsupported = errors.New("probes: unsupported on this platform")
)

// Metric names emitted by the probes.
const (
	MetricPoolUtilizationPercent = "pool_utilization_percent"
	MetricHitRatePercent         = "hit_rate_percent"
	MetricBrokers                = "brokers"
	MetricDiskUsagePercent       = "disk_usage_percent"
	MetricStatusCode             = "status_code"
)
