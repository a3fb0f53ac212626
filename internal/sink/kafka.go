package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"swapscope/internal/model"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes records keyed by pool address, so a pool's records stay on one partition in order.
type Kafka struct {
	writer MessageWriter
}

// NewKafkaWriter builds a synchronous writer for the given brokers and topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafka(writer MessageWriter) *Kafka {
	return &Kafka{writer: writer}
}

func (s *Kafka) Emit(ctx context.Context, record model.PriceRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal price record: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(record.Pool),
		Value: value,
		Time:  record.ObservedAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *Kafka) Close() error {
	return s.writer.Close()
}
