package queue

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka produces each body as one message on a fixed topic.
type Kafka struct {
	writer messageWriter
	topic  string
}

// NewKafka builds a synchronous writer that waits for all in-sync replicas
// and makes a single attempt per message.
func NewKafka(brokers []string, topic string) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  1,
		RequiredAcks: kafka.RequireAll,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Async:        false,
	}
	return &Kafka{writer: w, topic: topic}
}

func (k *Kafka) Send(ctx context.Context, body []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{Value: body})
}

func (k *Kafka) Name() string    { return "kafka" }
func (k *Kafka) Address() string { return k.topic }

func (k *Kafka) Close() error {
	return k.writer.Close()
}
