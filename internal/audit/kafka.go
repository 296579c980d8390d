package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig holds the audit topic settings.
type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"clientId"`
}

// KafkaPublisher writes events as JSON to one topic, keyed by action.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			Transport: &kafka.Transport{
				ClientID: cfg.ClientID,
			},
		},
		topic:  cfg.Topic,
		logger: logger,
	}
}

// NewPublisher returns a KafkaPublisher when cfg is enabled, otherwise a
// NopPublisher.
func NewPublisher(cfg KafkaConfig, logger *zap.Logger) Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("Audit publishing disabled")
		return NopPublisher{}
	}
	logger.Info("Initialized audit publisher",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))
	return NewKafkaPublisher(cfg, logger)
}

func buildMessage(event Event) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.Action),
		Value: value,
		Time:  event.Timestamp,
	}, nil
}

// Publish sends one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := buildMessage(event)
	if err != nil {
		p.logger.Error("Failed to marshal audit event",
			zap.String("topic", p.topic),
			zap.Error(err))
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish audit event",
			zap.String("topic", p.topic),
			zap.String("action", event.Action),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Audit event published",
		zap.String("topic", p.topic),
		zap.String("action", event.Action))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
