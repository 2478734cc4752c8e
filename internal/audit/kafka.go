package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaRecorder implements Recorder using segmentio/kafka-go.
type KafkaRecorder struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaRecorder creates a Kafka recorder that writes audit events to the
// given topic. Returns nil when brokers or topic are unset so callers can
// fall back to another sink. Call Close when shutting down.
func NewKafkaRecorder(brokers []string, topic string) *KafkaRecorder {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaRecorder{writer: writer, topic: topic}
}

// Record serializes the event as JSON and writes it to the Kafka topic.
// Uses the request context with a short timeout so slow Kafka does not block
// callers. Failures are logged and swallowed.
func (r *KafkaRecorder) Record(ctx context.Context, e Event) {
	if r == nil || r.writer == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("audit: marshal failed: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = r.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: payload,
	})
	if err != nil {
		log.Printf("audit: kafka write failed: %v", err)
	}
}

// Close closes the Kafka writer. Safe to call multiple times.
func (r *KafkaRecorder) Close() error {
	if r == nil || r.writer == nil {
		return nil
	}
	return r.writer.Close()
}
