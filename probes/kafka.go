package probes

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/healthwatch/health"
)

// BrokerConn is the subset of *kafka.Conn the probe uses.
type BrokerConn interface {
	Brokers() ([]kafka.Broker, error)
	Close() error
}

// DialFunc opens a broker connection.
type DialFunc func(ctx context.Context, network, address string) (BrokerConn, error)

// Kafka checks that a Kafka cluster is reachable through its bootstrap
// brokers and reports the cluster size.
type Kafka struct {
	component string
	brokers   []string
	dial      DialFunc
}

// NewKafka creates a probe that dials brokers with kafka.DialContext.
func NewKafka(component string, brokers []string) *Kafka {
	return newKafka(component, brokers, func(ctx context.Context, network, address string) (BrokerConn, error) {
		return kafka.DialContext(ctx, network, address)
	})
}

func newKafka(component string, brokers []string, dial DialFunc) *Kafka {
	if component == "" {
		component = "queue"
	}
	return &Kafka{component: component, brokers: append([]string(nil), brokers...), dial: dial}
}

// Name returns the component name.
func (k *Kafka) Name() string { return k.component }

// Check dials bootstrap brokers in order until one answers a metadata
// request. Unreachable bootstrap brokers degrade the result to Warning.
func (k *Kafka) Check(ctx context.Context) health.CheckResult {
	var errs []error
	for _, addr := range k.brokers {
		brokers, err := k.metadata(ctx, addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}

		result := health.Healthy(fmt.Sprintf("kafka reachable via %s", addr))
		if len(errs) > 0 {
			result = health.Warning(fmt.Sprintf("kafka reachable via %s, %d bootstrap broker(s) down", addr, len(errs)))
		}
		return result.WithMetric(MetricBrokers, float64(len(brokers)))
	}

	return health.Critical("kafka unreachable", errors.Join(append([]error{ErrNoBrokers}, errs...)...))
}

func (k *Kafka) metadata(ctx context.Context, addr string) ([]kafka.Broker, error) {
	conn, err := k.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.Brokers()
}
