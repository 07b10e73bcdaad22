package sync

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"dotysync/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	EventProductSynced = "product.synced"
	EventSyncCompleted = "sync.completed"
)

// Event is published after sync activity for downstream consumers (the
// worker persists them as audit entries).
type Event struct {
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	ProductID   string    `json:"product_id,omitempty"`
	SyncedCount int       `json:"synced_count"`
	ErrorCount  int       `json:"error_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits sync events. The orchestrator treats a nil Publisher as
// "events disabled".
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// KafkaPublisher writes sync events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewKafkaPublisher(brokers, topic string, logger *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
