package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes event payloads to a single Kafka topic.
type Writer struct {
	w     messageWriter
	topic string
}

// NewWriter builds a long-lived kafka-go writer for the configured topic.
func NewWriter(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafkago.RequireOne,
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topic": cfg.Topic, "brokers": cfg.Brokers}), "kafka writer initialized")
	}
	return &Writer{w: w, topic: cfg.Topic}, nil
}

// Publish writes one message; key keeps a profile's events on one partition.
func (k *Writer) Publish(ctx context.Context, key string, data []byte, attrs map[string]string) error {
	if k == nil || k.w == nil {
		return errors.New("kafka writer not initialized")
	}
	headers := make([]kafkago.Header, 0, len(attrs))
	for name, value := range attrs {
		headers = append(headers, kafkago.Header{Key: name, Value: []byte(value)})
	}
	err := k.w.WriteMessages(ctx, kafkago.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("write to %s: %w", k.topic, err)
	}
	return nil
}

func (k *Writer) Close() error {
	if k == nil || k.w == nil {
		return nil
	}
	return k.w.Close()
}
