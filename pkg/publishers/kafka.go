package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	id     string
	writer kafkaWriter
	log    logger.Logger
}

func newKafkaPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Kafka == nil {
		return nil, fmt.Errorf("publisher %q missing kafka configuration", cfg.ID)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: time.Duration(cfg.Kafka.BatchTimeoutMillis) * time.Millisecond,
	}
	return &kafkaPublisher{id: cfg.ID, writer: w, log: logger.Ensure(log)}, nil
}

func (k *kafkaPublisher) ID() string   { return k.id }
func (k *kafkaPublisher) Type() string { return TypeKafka }

// Publish writes the event keyed by sender hash so one sender's events stay
// on one partition.
func (k *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := evt.SenderHash
	if key == "" {
		key = evt.ID
	}
	var headers []kafka.Header
	for k, v := range evt.attributes() {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload, Headers: headers}); err != nil {
		k.log.ErrorObj("kafka publisher send failed", "publisher_kafka_error", map[string]any{
			"publisher_id": k.id,
			"event_id":     evt.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("write to kafka: %w", err)
	}
	return nil
}

func (k *kafkaPublisher) Close() error { return k.writer.Close() }
