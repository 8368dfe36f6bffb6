package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/healthwatch/alert"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes alert Events to a topic, keyed by alert id so every
// notification of one alert lands on the same partition.
type Kafka struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaWriter creates a writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafka creates a Kafka channel over writer.
func NewKafka(writer MessageWriter) *Kafka {
	return &Kafka{writer: writer, now: time.Now}
}

// Send publishes a.
func (k *Kafka) Send(ctx context.Context, a alert.Alert) error {
	value, err := json.Marshal(NewEvent(a, k.now()))
	if err != nil {
		return fmt.Errorf("notify: kafka encode: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.ID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("notify: kafka: %w", err)
	}
	return nil
}

// Close closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
